package grocery

import (
	"context"
	"net/http"

	"cookclip/internal/api/handlers"
	"cookclip/internal/core/grocery"

	"github.com/gin-gonic/gin"
)

// Lists 購物清單倉儲操作
type Lists interface {
	Items(ctx context.Context, listID string) ([]grocery.Item, error)
	AddFromRecipes(ctx context.Context, listID string, recipeIDs []string) ([]grocery.Item, error)
	AddFromMealPlan(ctx context.Context, listID, planID string) ([]grocery.Item, error)
	SmartMerge(ctx context.Context, listID string) ([]grocery.Item, error)
	Toggle(ctx context.Context, listID, itemID string) ([]grocery.Item, error)
	Remove(ctx context.Context, listID, itemID string) ([]grocery.Item, error)
	ClearChecked(ctx context.Context, listID string) ([]grocery.Item, error)
	ClearAll(ctx context.Context, listID string) error
}

// Handler 購物清單處理程序
type Handler struct {
	merger grocery.SmartMerger
	lists  Lists
}

// NewHandler 創建購物清單處理程序
func NewHandler(merger grocery.SmartMerger, lists Lists) *Handler {
	return &Handler{merger: merger, lists: lists}
}

// SmartMergeRequest 無狀態智慧合併請求
type SmartMergeRequest struct {
	Items []grocery.MergeInput `json:"items" binding:"required,dive"`
}

// SmartMergeResponse 智慧合併結果
type SmartMergeResponse struct {
	Items []grocery.MergedItem `json:"items"`
}

// ListResponse 清單內容
type ListResponse struct {
	ListID string         `json:"listId"`
	Items  []grocery.Item `json:"items"`
}

// AddRecipesRequest 加入食譜
type AddRecipesRequest struct {
	RecipeIDs []string `json:"recipeIds" binding:"required,min=1"`
}

// HandleSmartMerge 無狀態的智慧合併，空清單不呼叫推理服務
func (h *Handler) HandleSmartMerge(c *gin.Context) {
	var req SmartMergeRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	items, err := h.merger.Merge(c.Request.Context(), req.Items)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SmartMergeResponse{Items: items})
}

func (h *Handler) respond(c *gin.Context, items []grocery.Item, err error) {
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{ListID: c.Param("listId"), Items: items})
}

func (h *Handler) HandleGetList(c *gin.Context) {
	items, err := h.lists.Items(c.Request.Context(), c.Param("listId"))
	h.respond(c, items, err)
}

func (h *Handler) HandleAddRecipes(c *gin.Context) {
	var req AddRecipesRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	items, err := h.lists.AddFromRecipes(c.Request.Context(), c.Param("listId"), req.RecipeIDs)
	h.respond(c, items, err)
}

func (h *Handler) HandleAddMealPlan(c *gin.Context) {
	items, err := h.lists.AddFromMealPlan(c.Request.Context(), c.Param("listId"), c.Param("planId"))
	h.respond(c, items, err)
}

// HandleListSmartMerge 合併清單中未勾選的項目；失敗時清單不變
func (h *Handler) HandleListSmartMerge(c *gin.Context) {
	items, err := h.lists.SmartMerge(c.Request.Context(), c.Param("listId"))
	h.respond(c, items, err)
}

func (h *Handler) HandleToggle(c *gin.Context) {
	items, err := h.lists.Toggle(c.Request.Context(), c.Param("listId"), c.Param("itemId"))
	h.respond(c, items, err)
}

func (h *Handler) HandleRemove(c *gin.Context) {
	items, err := h.lists.Remove(c.Request.Context(), c.Param("listId"), c.Param("itemId"))
	h.respond(c, items, err)
}

func (h *Handler) HandleClearChecked(c *gin.Context) {
	items, err := h.lists.ClearChecked(c.Request.Context(), c.Param("listId"))
	h.respond(c, items, err)
}

func (h *Handler) HandleClearAll(c *gin.Context) {
	if err := h.lists.ClearAll(c.Request.Context(), c.Param("listId")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
