package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CoursePay/internal/pkg/catalog"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
)

// MainController serves the public pages.
type MainController struct {
	cfg     *config.Config
	catalog catalog.Catalog
}

func NewMainController(cfg *config.Config, c catalog.Catalog) *MainController {
	return &MainController{cfg: cfg, catalog: c}
}

func (mc *MainController) HandleIndex(c *fiber.Ctx) error {
	return c.Render("index", pageData(c, "", mc.cfg.IsDev(), fiber.Map{
		"Courses": mc.catalog.All(),
	}), layoutMain)
}

// HandleCourses lists the catalog with one buy form per course.
func (mc *MainController) HandleCourses(c *fiber.Ctx) error {
	return c.Render("courses", pageData(c, "Courses", mc.cfg.IsDev(), fiber.Map{
		"Courses": mc.catalog.All(),
	}), layoutMain)
}

func (mc *MainController) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
