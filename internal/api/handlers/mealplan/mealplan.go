package mealplan

import (
	"context"
	"net/http"
	"strconv"

	"cookclip/internal/api/handlers"
	"cookclip/internal/core/mealplan"
	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 菜單相關操作
type Service interface {
	Generate(ctx context.Context, req mealplan.GenerateRequest) (*mealplan.MealPlan, error)
	Get(ctx context.Context, id string) (*mealplan.MealPlan, error)
	Delete(ctx context.Context, id string) error
	SetMeal(ctx context.Context, planID string, day int, meal mealplan.MealType, slot mealplan.MealSlot) (*mealplan.MealPlan, error)
	RemoveMeal(ctx context.Context, planID string, day int, meal mealplan.MealType) (*mealplan.MealPlan, error)
}

// Handler 菜單處理程序
type Handler struct {
	service Service
}

// NewHandler 創建菜單處理程序
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GenerateRequest 菜單生成請求
type GenerateRequest struct {
	RecipeIDs   []string              `json:"recipeIds" binding:"required,min=1"`
	Duration    int                   `json:"duration" binding:"required,min=1"`
	Preferences *mealplan.Preferences `json:"preferences,omitempty"`
}

// SetMealRequest 指定某一餐
type SetMealRequest struct {
	RecipeID string `json:"recipeId" binding:"required"`
	Servings int    `json:"servings"`
}

// HandleGenerate 生成菜單
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req GenerateRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	common.LogInfo("開始處理菜單生成請求",
		zap.String("request_id", c.GetHeader("X-Request-ID")),
		zap.Int("recipes", len(req.RecipeIDs)),
		zap.Int("duration", req.Duration),
	)

	plan, err := h.service.Generate(c.Request.Context(), mealplan.GenerateRequest{
		RecipeIDs:   req.RecipeIDs,
		Duration:    req.Duration,
		Preferences: req.Preferences,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) HandleGet(c *gin.Context) {
	plan, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// slotParams 解析 :day 與 :meal
func slotParams(c *gin.Context) (int, mealplan.MealType, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		handlers.RespondError(c, common.ValidationFailed("day must be an integer"))
		return 0, "", false
	}
	meal, err := mealplan.ParseMealType(c.Param("meal"))
	if err != nil {
		handlers.RespondError(c, err)
		return 0, "", false
	}
	return day, meal, true
}

// HandleSetMeal 指定某天某餐的食譜
func (h *Handler) HandleSetMeal(c *gin.Context) {
	day, meal, ok := slotParams(c)
	if !ok {
		return
	}
	var req SetMealRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	plan, err := h.service.SetMeal(c.Request.Context(), c.Param("id"), day, meal, mealplan.MealSlot{
		RecipeID: req.RecipeID,
		Servings: req.Servings,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// HandleRemoveMeal 清除某天某餐
func (h *Handler) HandleRemoveMeal(c *gin.Context) {
	day, meal, ok := slotParams(c)
	if !ok {
		return
	}

	plan, err := h.service.RemoveMeal(c.Request.Context(), c.Param("id"), day, meal)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
