package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/entity/converter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Login 手机号 + 密码登录。前端历史上把手机号放在 username 字段里，两者都接受。
func (h *HTTPHandler) Login(c *gin.Context) {
	if h.repo == nil {
		ServiceUnavailable(c, "数据库未初始化")
		return
	}

	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.AuthLoginResponse{Success: false, Message: "无效的登录请求"})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = strings.TrimSpace(req.Username)
	}
	if phone == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, entity.AuthLoginResponse{Success: false, Message: "账号和密码不能为空"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.Login(ctx, phone, req.Password)
	if err != nil {
		switch entity.KindOf(err) {
		case entity.KindAuthFailure, entity.KindValidation:
			logrus.WithField("phone", phone).Warn("login attempt failed")
			c.JSON(http.StatusUnauthorized, entity.AuthLoginResponse{Success: false, Message: entity.MessageOf(err)})
		default:
			respondError(c, err, "登录失败")
		}
		return
	}

	token, expiresAt, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		InternalError(c, "创建会话失败")
		return
	}

	summary := converter.UserToSummary(user)
	c.JSON(http.StatusOK, entity.AuthLoginResponse{
		Success:   true,
		Message:   "登录成功",
		User:      &summary,
		Token:     token,
		ExpiresAt: &expiresAt,
	})
}

// Me 返回 Token 对应的用户
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "需要登录")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbUser, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		respondError(c, err, "加载用户信息失败")
		return
	}

	c.JSON(http.StatusOK, converter.UserToSummary(dbUser))
}
