package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrNotFound) 可以命中任何 NOT_FOUND
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 從錯誤鏈中取出 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCode 檢查錯誤鏈中是否有指定代碼
func HasCode(err error, code string) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Code == code
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeValidation          = "VALIDATION_ERROR"     // 400
	ErrCodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM" // 400
	ErrCodeNoRecipesMatch      = "NO_RECIPES_MATCH"     // 400
	ErrCodeNotFound            = "NOT_FOUND"            // 404
	ErrCodeNoRecipesFound      = "NO_RECIPES_FOUND"     // 404
	ErrCodeConflict            = "PERSISTENCE_CONFLICT" // 409
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"    // 429

	// 上游錯誤 (502)
	ErrCodeUpstreamFetch   = "UPSTREAM_FETCH_ERROR"
	ErrCodeExtractionParse = "EXTRACTION_PARSE_ERROR"
	ErrCodeDraftGeneration = "DRAFT_GENERATION_ERROR"
	ErrCodeSmartMerge      = "SMART_MERGE_ERROR"

	// 服務器錯誤 (5xx)
	ErrCodeInternalError  = "INTERNAL_ERROR"  // 500
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT" // 504
)

// 預定義錯誤，用於 errors.Is 比對
var (
	ErrValidation          = NewError(ErrCodeValidation, "請求參數無效", http.StatusBadRequest, nil)
	ErrUnsupportedPlatform = NewError(ErrCodeUnsupportedPlatform, "不支援的影片平台", http.StatusBadRequest, nil)
	ErrNoRecipesMatch      = NewError(ErrCodeNoRecipesMatch, "沒有符合偏好的食譜", http.StatusBadRequest, nil)
	ErrNotFound            = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrNoRecipesFound      = NewError(ErrCodeNoRecipesFound, "找不到任何食譜", http.StatusNotFound, nil)
	ErrConflict            = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrUpstreamFetch       = NewError(ErrCodeUpstreamFetch, "逐字稿服務錯誤", http.StatusBadGateway, nil)
	ErrExtractionParse     = NewError(ErrCodeExtractionParse, "食譜解析失敗", http.StatusBadGateway, nil)
	ErrDraftGeneration     = NewError(ErrCodeDraftGeneration, "菜單草稿生成失敗", http.StatusBadGateway, nil)
	ErrSmartMerge          = NewError(ErrCodeSmartMerge, "購物清單智慧合併失敗", http.StatusBadGateway, nil)
	ErrInternalError       = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
)

// ValidationFailed 建立帶訊息的驗證錯誤
func ValidationFailed(message string) *CustomError {
	return NewError(ErrCodeValidation, message, http.StatusBadRequest, nil)
}

// NotFound 建立資源不存在錯誤
func NotFound(message string) *CustomError {
	return NewError(ErrCodeNotFound, message, http.StatusNotFound, nil)
}

// UnsupportedPlatform 建立不支援平台錯誤
func UnsupportedPlatform(url string) *CustomError {
	return NewError(ErrCodeUnsupportedPlatform, "unsupported platform for url "+url, http.StatusBadRequest, nil)
}

// UpstreamFetch 包裝逐字稿服務錯誤
func UpstreamFetch(message string, err error) *CustomError {
	return NewError(ErrCodeUpstreamFetch, message, http.StatusBadGateway, err)
}

// ExtractionParse 包裝食譜解析錯誤
func ExtractionParse(message string, err error) *CustomError {
	return NewError(ErrCodeExtractionParse, message, http.StatusBadGateway, err)
}

// DraftGeneration 包裝菜單草稿錯誤
func DraftGeneration(message string, err error) *CustomError {
	return NewError(ErrCodeDraftGeneration, message, http.StatusBadGateway, err)
}

// SmartMerge 包裝智慧合併錯誤
func SmartMerge(message string, err error) *CustomError {
	return NewError(ErrCodeSmartMerge, message, http.StatusBadGateway, err)
}

// Conflict 建立資源衝突錯誤
func Conflict(message string, err error) *CustomError {
	return NewError(ErrCodeConflict, message, http.StatusConflict, err)
}

// Internal 包裝未分類的內部錯誤
func Internal(message string, err error) *CustomError {
	return NewError(ErrCodeInternalError, message, http.StatusInternalServerError, err)
}
