package reminder

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medpal/assist-api/internal/handler"
	"github.com/medpal/assist-api/internal/middleware"
	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/service/reminder"
)

type Handler struct {
	svc       *reminder.Service
	scheduler *reminder.Scheduler
}

func NewHandler(svc *reminder.Service, scheduler *reminder.Scheduler) *Handler {
	return &Handler{svc: svc, scheduler: scheduler}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.GET("", h.ListReminders)
		reminders.POST("", h.CreateReminder)
		reminders.DELETE("/:id", h.DeleteReminder)
		reminders.PATCH("/:id/toggle", h.ToggleReminder)
	}
}

type reminderView struct {
	*model.Reminder
	DisplayTime string `json:"display_time"`
	IsDue       bool   `json:"is_due"`
}

// ListReminders returns the sorted collection with display formatting and
// due highlighting against the scheduler's current minute.
func (h *Handler) ListReminders(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	current := ""
	if h.scheduler != nil {
		current = h.scheduler.CurrentMinute()
	}

	reminders := h.svc.List(identity.UserID)
	views := make([]reminderView, 0, len(reminders))
	for _, r := range reminders {
		views = append(views, reminderView{
			Reminder:    r,
			DisplayTime: reminder.FormatDisplayTime(r.Time),
			IsDue:       current != "" && r.Time == current,
		})
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"current_time": current,
		"reminders":    views,
	}))
}

func (h *Handler) CreateReminder(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req model.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.svc.Add(identity.UserID, req.MedicineName, req.Time)
	if err != nil {
		c.JSON(handler.StatusOf(err), handler.NewErrorResponse(err.Error()))
		return
	}
	if created == nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("medicine name and time are required"))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) DeleteReminder(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid reminder ID"))
		return
	}

	h.svc.Delete(identity.UserID, id)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ToggleReminder(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid reminder ID"))
		return
	}

	toggled := h.svc.Toggle(identity.UserID, id)
	if toggled == nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("reminder not found"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(toggled))
}
