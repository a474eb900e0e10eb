package controllers

import (
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/models/scopes"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func CreateIssue(ctx *gin.Context, db *gorm.DB) (issue *models.Issue, status int, err error) {
	var body types.CreateIssueRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	userId := ctx.GetString("id")
	staff := ctx.GetBool("staff")

	if body.BookingID != nil && *body.BookingID != "" {
		var count int64
		if err := db.
			WithContext(ctx.Request.Context()).
			Model(&models.Booking{}).
			Where("id = ?", *body.BookingID).
			Scopes(scopes.OwnedBy("student_id", userId, staff)).
			Count(&count).
			Error; err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if count == 0 {
			err := apperr.E(apperr.ErrNotFound, "booking not found")
			return nil, apperr.Status(err), err
		}
	}

	category := body.Category
	if category == "" {
		category = "other"
	}
	issue = &models.Issue{
		ID:          utils.NewID(utils.PREFIX_ISSUE),
		ReporterID:  userId,
		BookingID:   body.BookingID,
		Subject:     body.Subject,
		Description: body.Description,
		Category:    category,
		Status:      types.ISSUE_OPEN,
	}
	if err := db.WithContext(ctx.Request.Context()).Create(issue).Error; err != nil {
		log.Printf("[Issues] Error creating issue: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return issue, http.StatusCreated, nil
}

func ListIssues(ctx *gin.Context, db *gorm.DB) (issues []models.Issue, status int, err error) {
	var query struct {
		Status string `form:"status" binding:"omitempty,oneof=open in_progress resolved closed"`
	}
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, http.StatusBadRequest, err
	}
	tx := db.
		WithContext(ctx.Request.Context()).
		Model(&models.Issue{}).
		Scopes(scopes.OwnedBy("reporter_id", ctx.GetString("id"), ctx.GetBool("staff")))
	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if err := tx.Order("created_at DESC").Find(&issues).Error; err != nil {
		log.Printf("[Issues] Error listing issues: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return issues, http.StatusOK, nil
}

func GetIssue(ctx *gin.Context, db *gorm.DB) (issue *models.Issue, status int, err error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, http.StatusBadRequest, err
	}
	issue = &models.Issue{}
	if err := db.
		WithContext(ctx.Request.Context()).
		Model(&models.Issue{}).
		Scopes(scopes.WithID(params.ID), scopes.OwnedBy("reporter_id", ctx.GetString("id"), ctx.GetBool("staff"))).
		Preload("Reporter").
		First(issue).
		Error; err != nil {
		err = apperr.FromDB(err, "issue")
		return nil, apperr.Status(err), err
	}
	return issue, http.StatusOK, nil
}

// UpdateIssue is for staff only; the route is guarded by RequireRole.
func UpdateIssue(ctx *gin.Context, db *gorm.DB) (issue *models.Issue, status int, err error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, http.StatusBadRequest, err
	}
	var body types.UpdateIssueRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	issue = &models.Issue{}
	err = db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(params.ID)).First(issue).Error; err != nil {
			return apperr.FromDB(err, "issue")
		}
		updates := map[string]any{"status": body.Status}
		if body.Resolution != nil {
			updates["resolution"] = *body.Resolution
		}
		if body.AssigneeID != nil {
			updates["assignee_id"] = *body.AssigneeID
		}
		return tx.Model(issue).Updates(updates).Error
	})
	if err != nil {
		log.Printf("[Issues] Error updating issue %s: %s\n", params.ID, err.Error())
		return nil, apperr.Status(err), err
	}
	return issue, http.StatusOK, nil
}
