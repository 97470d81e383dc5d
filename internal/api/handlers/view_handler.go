package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

const homeJobsShown = 5

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	jobs services.JobService
}

func NewViewHandler(jobs services.JobService) *ViewHandler {
	return &ViewHandler{jobs: jobs}
}

func (h *ViewHandler) Home(c *gin.Context) {
	list, err := h.jobs.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	open := make([]models.Job, 0, len(list))
	for _, j := range list {
		if j.Status == models.JobOpen {
			open = append(open, j)
		}
	}
	shown := open
	if len(shown) > homeJobsShown {
		shown = shown[:homeJobsShown]
	}
	c.HTML(http.StatusOK, "home.html", gin.H{"Title": "Home", "Jobs": shown, "OpenJobs": len(open)})
}

func (h *ViewHandler) Jobs(c *gin.Context) {
	list, err := h.jobs.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "jobs.html", gin.H{"Title": "Jobs", "Jobs": list})
}

func (h *ViewHandler) Job(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, utils.E(utils.CodeNotFound, "ViewHandler.Job", "Job not found", err))
		return
	}
	j, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "job.html", gin.H{"Title": j.Title, "Job": j})
}

func (h *ViewHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Log in"})
}

func (h *ViewHandler) Register(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

func (h *ViewHandler) renderError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	msg := http.StatusText(status)
	if utils.IsCode(err, utils.CodeNotFound) {
		msg = "The page you are looking for does not exist."
	} else {
		_ = c.Error(err)
	}
	c.HTML(status, "error.html", gin.H{"Title": http.StatusText(status), "Message": msg})
}
