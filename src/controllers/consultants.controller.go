package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/models/scopes"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func CreateConsultantRequest(ctx *gin.Context, db *gorm.DB) (req *models.ConsultantRequest, status int, err error) {
	var body types.CreateConsultantRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	req = &models.ConsultantRequest{
		ID:                utils.NewID(utils.PREFIX_CONSULTANT),
		RequesterID:       ctx.GetString("id"),
		Topic:             strings.TrimSpace(body.Topic),
		Description:       body.Description,
		PreferredSchedule: body.PreferredSchedule,
		Budget:            body.Budget,
		ContactPhone:      utils.StringPtr(body.ContactPhone),
		Status:            types.CONSULTANT_PENDING,
	}
	if err := db.WithContext(ctx.Request.Context()).Create(req).Error; err != nil {
		log.Printf("[Consultants] Error creating request: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return req, http.StatusCreated, nil
}

func ListConsultantRequests(ctx *gin.Context, db *gorm.DB) (reqs []models.ConsultantRequest, status int, err error) {
	var query struct {
		Status string `form:"status" binding:"omitempty,oneof=pending reviewing accepted rejected completed"`
	}
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, http.StatusBadRequest, err
	}
	tx := db.
		WithContext(ctx.Request.Context()).
		Model(&models.ConsultantRequest{}).
		Scopes(scopes.OwnedBy("requester_id", ctx.GetString("id"), ctx.GetBool("staff")))
	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if err := tx.Order("created_at DESC").Find(&reqs).Error; err != nil {
		log.Printf("[Consultants] Error listing requests: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return reqs, http.StatusOK, nil
}

func GetConsultantRequest(ctx *gin.Context, db *gorm.DB) (req *models.ConsultantRequest, status int, err error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, http.StatusBadRequest, err
	}
	req = &models.ConsultantRequest{}
	if err := db.
		WithContext(ctx.Request.Context()).
		Model(&models.ConsultantRequest{}).
		Scopes(scopes.WithID(params.ID), scopes.OwnedBy("requester_id", ctx.GetString("id"), ctx.GetBool("staff"))).
		Preload("Requester").
		First(req).
		Error; err != nil {
		err = apperr.FromDB(err, "consultant request")
		return nil, apperr.Status(err), err
	}
	return req, http.StatusOK, nil
}

func UpdateConsultantRequest(ctx *gin.Context, db *gorm.DB) (req *models.ConsultantRequest, status int, err error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, http.StatusBadRequest, err
	}
	var body types.UpdateConsultantRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	req = &models.ConsultantRequest{}
	err = db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(params.ID)).First(req).Error; err != nil {
			return apperr.FromDB(err, "consultant request")
		}
		updates := map[string]any{
			"status":       body.Status,
			"responded_by": ctx.GetString("id"),
		}
		if body.Response != nil {
			updates["response"] = *body.Response
		}
		return tx.Model(req).Updates(updates).Error
	})
	if err != nil {
		log.Printf("[Consultants] Error updating request %s: %s\n", params.ID, err.Error())
		return nil, apperr.Status(err), err
	}
	return req, http.StatusOK, nil
}
