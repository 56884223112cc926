package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "job:"
	JobQueueKey      = "job_queue"
	JobProcessingKey = "job_processing"
	JobStatsKey      = "job_stats"
	JobRetryKey      = "job_retry" // sorted set, score = not-before in unix ms

	// Job settings
	DefaultMaxRetries = 3
	DefaultRetryDelay = 30 * time.Second
	DefaultJobTimeout = 30 * time.Second
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// HandlerFunc runs one job. A returned error fails the attempt.
type HandlerFunc func(ctx context.Context, job *Job) error

// Queue manages background jobs using Redis
type Queue struct {
	client     *redis.Client
	workers    int
	retryDelay time.Duration
	retryPoll  time.Duration
	jobTimeout time.Duration
	handlers   map[JobType]HandlerFunc
	workerPool chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewQueue creates a new job queue on the given Redis client
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 2 // Default number of workers
	}

	return &Queue{
		client:     client,
		workers:    workers,
		retryDelay: DefaultRetryDelay,
		retryPoll:  time.Second,
		jobTimeout: DefaultJobTimeout,
		handlers:   make(map[JobType]HandlerFunc),
		workerPool: make(chan struct{}, workers),
		stopCh:     make(chan struct{}),
	}
}

// SetRetryDelay sets the base delay between attempts. Attempt n waits n times the delay.
func (q *Queue) SetRetryDelay(d time.Duration) {
	if d > 0 {
		q.retryDelay = d
		if d < q.retryPoll {
			q.retryPoll = d
		}
	}
}

// SetJobTimeout bounds a single handler run.
func (q *Queue) SetJobTimeout(d time.Duration) {
	if d > 0 {
		q.jobTimeout = d
	}
}

// Handle registers the handler for a job type. Call before Start.
func (q *Queue) Handle(jobType JobType, h HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	// Initialize worker pool
	for i := 0; i < q.workers; i++ {
		q.workerPool <- struct{}{}
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Recovers jobs left in processing by a crashed worker
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, 1*time.Minute)

	// Moves due retries back to the queue, including ones scheduled before a restart
	q.wg.Add(1)
	go q.retryPromoter()
}

// Stop stops the job queue workers
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.mu.Unlock()

	q.wg.Wait()

	// Drain the pool so a later Start begins with a clean slate
	for len(q.workerPool) > 0 {
		<-q.workerPool
	}
	log.Info("[JobQueue] All workers stopped")
}

// stuckSweeper periodically scans the processing list and requeues jobs stuck for longer than maxAge
func (q *Queue) stuckSweeper(maxAge time.Duration, interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.requeueStuck(ctx, maxAge)
		}
	}
}

func (q *Queue) retryPromoter() {
	defer q.wg.Done()
	ctx := context.Background()
	q.promoteDueRetries(ctx, time.Now())

	ticker := time.NewTicker(q.retryPoll)
	defer ticker.Stop()
	for {
		select {
		case <-q.stopCh:
			return
		case now := <-ticker.C:
			q.promoteDueRetries(ctx, now)
		}
	}
}

// promoteDueRetries pushes every retry whose not-before time has passed.
// ZRem decides ownership so concurrent promoters push a job once.
func (q *Queue) promoteDueRetries(ctx context.Context, now time.Time) int {
	ids, err := q.client.ZRangeByScore(ctx, JobRetryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		log.Errorf("[JobQueue] Retry scan error: %v", err)
		return 0
	}

	promoted := 0
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, JobRetryKey, id).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, JobQueueKey, id).Err(); err != nil {
			log.Errorf("[JobQueue] Failed to requeue retry %s: %v", id, err)
			q.client.ZAdd(ctx, JobRetryKey, redis.Z{Score: float64(now.UnixMilli()), Member: id})
			continue
		}
		promoted++
	}
	return promoted
}

// scheduleRetry parks the job in the retry set and drops it from the
// processing list in one transaction, so it is always in one of the two.
func (q *Queue) scheduleRetry(ctx context.Context, job *Job) {
	notBefore := time.Now().Add(q.retryDelay * time.Duration(job.RetryCount))
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, JobRetryKey, redis.Z{Score: float64(notBefore.UnixMilli()), Member: job.ID})
		pipe.LRem(ctx, JobProcessingKey, 1, job.ID)
		return nil
	})
	if err != nil {
		// Still in the processing list, the stuck sweeper picks it up.
		log.Errorf("[JobQueue] Failed to schedule retry for job %s: %v", job.ID, err)
	}
}

func (q *Queue) requeueStuck(ctx context.Context, maxAge time.Duration) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue] Sweeper LRange error: %v", err)
		return
	}
	now := time.Now()
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			// Job data missing or unreadable; remove from processing list
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if job.Status == JobStatusRetrying {
			// Retry was never parked; make it due now
			_ = q.client.ZAdd(ctx, JobRetryKey, redis.Z{Score: float64(now.UnixMilli()), Member: id}).Err()
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		started := job.UpdatedAt
		if job.ProcessedAt != nil && !job.ProcessedAt.IsZero() {
			started = *job.ProcessedAt
		}
		if now.Sub(started) > maxAge {
			log.Warnf("[JobQueue] Recovering stuck job %s (type=%s), age=%s", job.ID, job.Type, now.Sub(started))
			job.Status = JobStatusPending
			job.ErrorMsg = "recovered by sweeper"
			job.UpdatedAt = now
			q.updateJob(ctx, job)
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			_ = q.client.RPush(ctx, JobQueueKey, id).Err()
		}
	}
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
			// Acquire worker slot
			<-q.workerPool

			job, err := q.dequeueJob(ctx)
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					log.Errorf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
					time.Sleep(time.Second)
				}
				q.workerPool <- struct{}{}
				continue
			}

			if job != nil {
				log.Infof("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
				q.processJob(ctx, job)
			}

			// Release worker slot
			q.workerPool <- struct{}{}
		}
	}
}

// EnqueueJob adds a new job to the queue
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[JobQueue] Enqueued job %s (Type: %s)", job.ID, job.Type)
	return job, nil
}

// dequeueJob gets the next job from the queue
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	// Move job from pending queue to processing queue atomically
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return job, nil
}

// processJob runs one attempt of a job and schedules a retry on failure
func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	q.mu.Lock()
	handler, ok := q.handlers[job.Type]
	q.mu.Unlock()

	var err error
	if ok {
		jobCtx, cancel := context.WithTimeout(ctx, q.jobTimeout)
		err = handler(jobCtx, job)
		cancel()
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			log.Infof("[JobQueue] Retrying job %s (Attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			q.updateJob(ctx, job)
			q.scheduleRetry(ctx, job)
			return
		}
		log.Errorf("[JobQueue] Job %s permanently failed after %d retries", job.ID, job.RetryCount)
		q.updateJobStats(ctx, JobStatusFailed, 1)
		q.updateJob(ctx, job)
	} else {
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		q.removeCompletedJob(ctx, job.ID)
	}

	q.removeFromProcessing(ctx, job.ID)
}

// updateJob updates job data in Redis
func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}

	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// removeFromProcessing removes a job from the processing queue
func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

// removeCompletedJob completely removes a completed job from Redis
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove completed job %s from Redis: %v", jobID, err)
	}
}

// updateJobStats updates job statistics
func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// GetJobStats returns statistics about job statuses
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64)
	for status, count := range stats {
		if countInt, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = countInt
		}
	}

	return result, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetRetrySize returns the number of jobs waiting for a retry
func (q *Queue) GetRetrySize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, JobRetryKey).Result()
}

// GetProcessingSize returns the number of jobs being processed
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}
