package catalog

import "strings"

// Course is a sellable catalog entry. PriceTWD is in major currency units.
type Course struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	PriceTWD int64  `json:"price_twd"`
	Desc     string `json:"desc"`
	Badge    string `json:"badge"`
}

// UnitAmount returns the price in minor units as the payment processor expects it.
func (c Course) UnitAmount() int64 {
	return c.PriceTWD * 100
}

// Catalog is a read-only course lookup.
type Catalog interface {
	All() []Course
	Find(id string) (Course, bool)
}

type staticCatalog struct {
	courses []Course
	byID    map[string]Course
}

// New builds a catalog from a fixed course list. Later duplicates of an ID are ignored.
func New(courses []Course) Catalog {
	c := &staticCatalog{byID: make(map[string]Course, len(courses))}
	for _, course := range courses {
		if _, exists := c.byID[course.ID]; exists {
			continue
		}
		c.byID[course.ID] = course
		c.courses = append(c.courses, course)
	}
	return c
}

// Default returns the built-in course list.
func Default() Catalog {
	return New(DefaultCourses)
}

func (c *staticCatalog) All() []Course {
	out := make([]Course, len(c.courses))
	copy(out, c.courses)
	return out
}

func (c *staticCatalog) Find(id string) (Course, bool) {
	course, ok := c.byID[strings.TrimSpace(id)]
	return course, ok
}

var DefaultCourses = []Course{
	{
		ID:       "course_py_basic",
		Title:    "Python 入門：從零到能寫",
		PriceTWD: 990,
		Desc:     "變數、if/for、函式、模組；實作迷你專案。",
		Badge:    "新手友善",
	},
	{
		ID:       "course_flask_web",
		Title:    "Flask 網站實戰",
		PriceTWD: 1490,
		Desc:     "Blueprint、Jinja、部署；打造可上線的小網站。",
		Badge:    "實戰",
	},
	{
		ID:       "course_speech_ai",
		Title:    "語音轉錄與摘要：從 Whisper 到報告",
		PriceTWD: 1990,
		Desc:     "上傳音檔→轉寫→摘要→Docx 報告自動生成。",
		Badge:    "進階",
	},
}
