package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/apperr"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/authz"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/service"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// 业务错误码，HTTP 状态码 = code / 100
const (
	CodeBadRequest         = 40000
	CodeInvalidTransition  = 40010
	CodeValidation         = 40020
	CodeUnauthorized       = 40100
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeConflict           = 40900
	CodeInternal           = 50000
	CodeStorageUnavailable = 50300
)

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// List 分页列表响应
func List(c *gin.Context, items interface{}, page, pageSize int, total int64) {
	totalPages := int64(0)
	if pageSize > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code/100, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Error(c, CodeUnauthorized, message)
}

// respondError 将业务错误映射为响应，未知错误按 500 处理并交给日志中间件
func respondError(c *gin.Context, err error) {
	var (
		it *apperr.InvalidTransitionError
		ve *apperr.ValidationError
		pd *apperr.PermissionDeniedError
		nf *apperr.NotFoundError
		cf *apperr.ConflictError
	)
	switch {
	case errors.As(err, &it):
		Error(c, CodeInvalidTransition, it.Error())
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, Response{
			Code:    CodeValidation,
			Message: ve.Error(),
			Data:    ve.Fields,
		})
	case errors.As(err, &pd):
		Error(c, CodeForbidden, pd.Error())
	case errors.As(err, &nf):
		Error(c, CodeNotFound, nf.Error())
	case errors.As(err, &cf):
		Error(c, CodeConflict, cf.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		Error(c, CodeStorageUnavailable, err.Error())
	default:
		_ = c.Error(err)
		Error(c, CodeInternal, "internal server error")
	}
}

// bindJSON 解析请求体，空 body 视为零值
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// GetUserID 从JWT中间件获取用户ID
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get("user_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

const actorKey = "actor"

// LoadActor 根据 JWT 中的用户ID加载 Actor，必须挂在 JWTAuth 之后
func LoadActor(actors *service.ActorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := strconv.ParseUint(GetUserID(c), 10, 64)
		if err != nil {
			Unauthorized(c, "Invalid user id in token")
			c.Abort()
			return
		}
		actor, err := actors.Resolve(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActor 当前请求的 Actor
func GetActor(c *gin.Context) *authz.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(*authz.Actor); ok {
			return a
		}
	}
	return nil
}

// GetPagination 获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return
}

// parseID 解析路径参数中的数字ID
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryUint 可选的数字查询参数
func queryUint(c *gin.Context, filters map[string]interface{}, key string) bool {
	v := c.Query(key)
	if v == "" {
		return true
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		BadRequest(c, "Invalid "+key)
		return false
	}
	filters[key] = n
	return true
}

// queryStatus 状态过滤统一转大写
func queryStatus(c *gin.Context, filters map[string]interface{}) {
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		filters["status"] = strings.ToUpper(v)
	}
}

// queryBool 兼容 true/1/True
func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}
