package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"lkrserver/broadcast" //Websocketハブとルーム毎のイベント配信
	"lkrserver/database"  //PostgreSQLとRedisの初期化、Room/Recordストア
	"lkrserver/game"      //ゲーム進行のロジック（投票・任務・スキル）
	"lkrserver/handlers"  //HTTPハンドラ
	"lkrserver/utils"     //ロガーの初期化とCronジョブ(期限切れルームの定期削除)

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

func main() {
	var logger *zap.Logger
	var err error
	logger, err = utils.InitLogger() // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync() // ロガーのクリーンアップ

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	// 設定ファイルの読み込み
	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("設定ファイルの読み込みに失敗しました", zap.Error(err))
	}

	// 非同期でPostgreSQLとRedisの初期化
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		var err error
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("PostgreSQLの初期化に失敗しました", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		var err error
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	// 2つの初期化が完了するのを待つ
	<-done
	<-done

	hub := broadcast.NewHub(logger)
	svc := game.NewService(
		database.NewRoomStore(rdb, logger),
		database.NewRecordStore(db, logger),
		hub,
		logger,
	)

	// クーロンスケジューラのセットアップと呼び出し
	go utils.CronCleaner(svc, logger)

	router := gin.Default()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	allowOrigin := config.AllowOrigin
	if allowOrigin == "" {
		allowOrigin = "http://localhost:8080"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{allowOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//各HTTPリクエストのルーティング
	// ルーム管理
	router.POST("/create", func(c *gin.Context) {
		handlers.CreateRoom(c, svc, logger)
	})
	router.GET("/rooms", func(c *gin.Context) {
		handlers.ListRooms(c, svc, logger)
	})
	router.GET("/room/:roomId", func(c *gin.Context) {
		handlers.GetRoom(c, svc, logger)
	})
	router.POST("/room/:roomId/join", func(c *gin.Context) {
		handlers.JoinRoom(c, svc, logger)
	})
	router.POST("/room/:roomId/exit", func(c *gin.Context) {
		handlers.ExitRoom(c, svc, logger)
	})
	router.POST("/room/:roomId/start", func(c *gin.Context) {
		handlers.StartGame(c, svc, logger)
	})
	router.POST("/room/:roomId/avatar", func(c *gin.Context) {
		handlers.SelectAvatar(c, svc, logger)
	})
	router.GET("/room/:roomId/players", func(c *gin.Context) {
		handlers.ListPlayers(c, svc, logger)
	})

	// 役職と隊長
	router.POST("/room/:roomId/roles/assign", func(c *gin.Context) {
		handlers.AssignRoles(c, svc, logger)
	})
	router.GET("/room/:roomId/roles", func(c *gin.Context) {
		handlers.RolesAndLeader(c, svc, logger)
	})

	// 投票
	router.POST("/room/:roomId/vote/start", func(c *gin.Context) {
		handlers.StartVote(c, svc, logger)
	})
	router.POST("/room/:roomId/vote", func(c *gin.Context) {
		handlers.CastVote(c, svc, logger)
	})
	router.POST("/room/:roomId/vote/timeup", func(c *gin.Context) {
		handlers.VoteTimeUp(c, svc, logger)
	})
	router.GET("/room/:roomId/vote/state", func(c *gin.Context) {
		handlers.VoteState(c, svc, logger)
	})
	router.GET("/room/:roomId/vote/result", func(c *gin.Context) {
		handlers.VoteResult(c, svc, logger)
	})

	// 任務
	router.POST("/room/:roomId/mission/card", func(c *gin.Context) {
		handlers.SubmitMissionCard(c, svc, logger)
	})
	router.GET("/room/:roomId/mission/state", func(c *gin.Context) {
		handlers.MissionState(c, svc, logger)
	})
	router.POST("/room/:roomId/mission/finish", func(c *gin.Context) {
		handlers.FinishSkillPhase(c, svc, logger)
	})

	// スキル
	router.POST("/skill/lurker", func(c *gin.Context) {
		handlers.LurkerSkill(c, svc, logger)
	})
	router.POST("/skill/commander", func(c *gin.Context) {
		handlers.CommanderSkill(c, svc, logger)
	})
	router.POST("/skill/saboteur", func(c *gin.Context) {
		handlers.SaboteurSkill(c, svc, logger)
	})
	router.POST("/skill/medic", func(c *gin.Context) {
		handlers.MedicSkill(c, svc, logger)
	})
	router.POST("/skill/shadow", func(c *gin.Context) {
		handlers.ShadowSkill(c, svc, logger)
	})
	router.POST("/skill/ultimate", func(c *gin.Context) {
		handlers.CivilianUltimate(c, svc, logger)
	})
	router.GET("/room/:roomId/skill/state", func(c *gin.Context) {
		handlers.SkillState(c, svc, logger)
	})

	// 戦績
	router.POST("/room/:roomId/end", func(c *gin.Context) {
		handlers.EndGame(c, svc, logger)
	})
	router.GET("/room/:roomId/record", func(c *gin.Context) {
		handlers.RecordByRoom(c, svc, logger)
	})
	router.GET("/stats/:playerName", func(c *gin.Context) {
		handlers.PlayerStats(c, svc, logger)
	})

	// Websocket接続（ルーム毎のイベント配信）
	router.GET("/ws", func(c *gin.Context) {
		broadcast.HandleConnections(c, hub, upgrader, logger)
	})

	// テスト時はHTTPサーバーとして運用。デフォルトポートは ":8080"
	router.Run()

	// // 本番環境ではコメントアウトを解除し、HTTPSサーバーとして運用
	// err = router.RunTLS(":443", "path/to/cert.pem", "path/to/key.pem")
	// if err != nil {
	// 	logger.Fatal("Failed to run HTTPS server: ", zap.Error(err))
	// }
}
