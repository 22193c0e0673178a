package httpapi

import (
	"net/http"

	"fieldops-platform/internal/expense"

	"github.com/gin-gonic/gin"
)

// ListExpenses returns the authenticated salesman's expenses.
func (h Handlers) ListExpenses(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	out, err := h.Expenses.ListBySalesman(c.Request.Context(), act.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": out})
}

// CreateExpense files a new expense for the authenticated salesman.
func (h Handlers) CreateExpense(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var in expense.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, out, err := h.Expenses.Create(c.Request.Context(), in, act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusCreated, e)
}

// UpdateExpense applies a partial update to one expense.
func (h Handlers) UpdateExpense(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var patch expense.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, out, err := h.Expenses.Update(c.Request.Context(), c.Param("id"), patch, act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, e)
}

// DeleteExpense removes one expense and returns its final snapshot.
func (h Handlers) DeleteExpense(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	e, out, err := h.Expenses.Delete(c.Request.Context(), c.Param("id"), act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted", "expense": e})
}

// UploadExpenseImages stores receipt images and attaches them to every
// expense of the authenticated salesman.
func (h Handlers) UploadExpenseImages(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	paths, err := h.saveUploads(c, "images")
	if err != nil {
		respondError(c, err)
		return
	}
	updated, out, err := h.Expenses.ReplaceImages(c.Request.Context(), act.UserID, paths, act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, gin.H{"images": paths, "expenses": updated})
}
