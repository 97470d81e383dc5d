package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

type JobHandler struct {
	jobs services.JobService
	apps services.ApplicationService
}

func NewJobHandler(jobs services.JobService, apps services.ApplicationService) *JobHandler {
	return &JobHandler{jobs: jobs, apps: apps}
}

func (h *JobHandler) List(c *gin.Context) {
	list, err := h.jobs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JobHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "JobHandler.Get")
	if !ok {
		return
	}
	j, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) ByUser(c *gin.Context) {
	id, ok := paramID(c, "userId", "JobHandler.ByUser")
	if !ok {
		return
	}
	list, err := h.jobs.ListByEmployer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Mine lists the calling employer's jobs.
func (h *JobHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.jobs.ListByEmployer(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JobHandler) Recommended(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := h.jobs.Recommend(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JobHandler) Create(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req services.JobInput
	if !bindJSON(c, &req, "JobHandler.Create") {
		return
	}
	j, err := h.jobs.Create(c.Request.Context(), p, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (h *JobHandler) Update(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "JobHandler.Update")
	if !ok {
		return
	}
	var req services.JobUpdate
	if !bindJSON(c, &req, "JobHandler.Update") {
		return
	}
	j, err := h.jobs.Update(c.Request.Context(), p, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Delete(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "JobHandler.Delete")
	if !ok {
		return
	}
	if err := h.jobs.Delete(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus is the admin override of a job's status.
func (h *JobHandler) SetStatus(c *gin.Context) {
	const op = "JobHandler.SetStatus"

	id, ok := paramID(c, "id", op)
	if !ok {
		return
	}
	status, ok := statusParam(c, op)
	if !ok {
		return
	}
	j, err := h.jobs.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Applications(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "JobHandler.Applications")
	if !ok {
		return
	}
	list, err := h.apps.ListByJob(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JobHandler) SetApplicationStatus(c *gin.Context) {
	const op = "JobHandler.SetApplicationStatus"

	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "appId", op)
	if !ok {
		return
	}
	status, ok := statusParam(c, op)
	if !ok {
		return
	}
	a, err := h.apps.UpdateStatus(c.Request.Context(), p, id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// statusParam reads the status from ?status= or a {"status": ...} body.
func statusParam(c *gin.Context, op string) (string, bool) {
	if s := c.Query("status"); s != "" {
		return s, true
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "status is required", err))
		return "", false
	}
	return req.Status, true
}
