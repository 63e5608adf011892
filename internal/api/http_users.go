package api

import (
	"context"
	"net/http"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/entity/converter"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		respondError(c, err, "获取用户列表失败")
		return
	}

	c.JSON(http.StatusOK, converter.UsersToSummaries(users))
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的用户 id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		if entity.KindOf(err) == entity.KindNotFound {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		respondError(c, err, "获取用户失败")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// CreateUser 未提供密码时使用默认密码，写库前统一哈希
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	var req entity.UserFields
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.CreateUser(ctx, &req)
	if err != nil {
		respondError(c, err, "创建用户失败")
		return
	}

	summary := converter.UserToSummary(user)
	c.JSON(http.StatusCreated, entity.UserMutationResponse{
		Message: "用户创建成功",
		UserID:  user.ID,
		User:    &summary,
	})
}

func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的用户 id")
		return
	}

	var req entity.UserFields
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.UpdateUser(ctx, id, &req)
	if err != nil {
		respondError(c, err, "更新用户失败")
		return
	}

	summary := converter.UserToSummary(user)
	c.JSON(http.StatusOK, entity.UserMutationResponse{
		Message: "用户更新成功",
		UserID:  user.ID,
		User:    &summary,
	})
}

func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的用户 id")
		return
	}

	if requestUser := CurrentUser(c); requestUser != nil && requestUser.ID == id {
		BadRequest(c, ErrCodeCannotDeleteSelf, "不能删除当前登录用户")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteUser(ctx, id); err != nil {
		respondError(c, err, "删除用户失败")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "用户删除成功"})
}
