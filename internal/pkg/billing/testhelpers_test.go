package billing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ManuelReschke/CoursePay/internal/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "billing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func completedPayload(eventID, sessionID string, amount int64, status string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "type": "checkout.session.completed",
  "data": {"object": {
    "id": %q,
    "metadata": {"course_id": "course_py_basic"},
    "amount_total": %d,
    "payment_status": %q,
    "customer_details": {"email": "buyer@example.com"}
  }}
}`, eventID, sessionID, amount, status))
}
