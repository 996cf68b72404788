package utils

import (
	"context"

	"lkrserver/game"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronCleaner は終了後に削除予定時刻を過ぎた部屋を定期的に回収します。
// 通常はタイマーで削除されますが、プロセス再起動などでタイマーが
// 失われた場合の後始末として毎分走らせます。
func CronCleaner(svc *game.Service, logger *zap.Logger) {
	c := cron.New()

	c.AddFunc("@every 1m", func() {
		deleted, err := svc.SweepExpiredRooms(context.Background())
		if err != nil {
			logger.Error("期限切れ部屋の回収に失敗しました", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("期限切れ部屋を削除しました", zap.Int("rooms_deleted", deleted))
		}
	})

	c.Start()
}
