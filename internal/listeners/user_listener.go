package listeners

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"SentriSafe/internal/models"
	"SentriSafe/internal/sos"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/util"
)

// Register 挂接用户生命周期信号
//
// 登录时预建编排器并预热设置缓存，激活路径上少一次落库查询；
// 登出信号只做审计日志，会话清理由登出请求本身完成
func Register(db *gorm.DB, manager *sos.Manager) {
	util.Sig().Connect(models.SigUserCreate, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok {
			return
		}
		logger.Info("user registered", zap.Uint("user", user.ID), zap.String("email", user.Email))
	})

	util.Sig().Connect(models.SigUserLogin, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok {
			return
		}
		logger.Info("user logged in", zap.Uint("user", user.ID))

		if err := models.SeedDefaultMessages(db, user.ID); err != nil {
			logger.Warn("seed messages on login failed", zap.Uint("user", user.ID), zap.Error(err))
		}
		manager.Get(user.ID).Settings(context.Background())
	})

	util.Sig().Connect(models.SigUserLogout, func(sender any, params ...any) {
		userID, ok := sender.(uint)
		if !ok {
			return
		}
		logger.Info("user logged out", zap.Uint("user", userID))
	})
}
