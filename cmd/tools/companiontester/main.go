package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/mindpal/backend/internal/config"
	"github.com/zhouzirui/mindpal/backend/internal/logging"
	"github.com/zhouzirui/mindpal/backend/internal/service/ai"
	"github.com/zhouzirui/mindpal/backend/internal/service/companion"
	"github.com/zhouzirui/mindpal/backend/internal/session"
	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

func main() {
	logger := logging.New(logging.Config{Level: "debug", Pretty: true})

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg("无法加载 .env，改用系统环境变量")
	}

	mode := flag.String("mode", "", "测试模式: chat 或 mood")
	text := flag.String("text", "", "chat 模式下发送的消息，多条用 | 分隔")
	logPath := flag.String("log", "", "mood 模式下的对话记录文件，每行 \"role: text\"")
	configPath := flag.String("config", "", "可选的 YAML 配置文件")
	timeout := flag.Duration("timeout", 45*time.Second, "请求超时时间")

	flag.Parse()

	if *mode != "chat" && *mode != "mood" {
		flag.Usage()
		logger.Fatal().Msg("请通过 -mode=chat 或 -mode=mood 指定测试模式")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("配置加载失败")
	}
	if !cfg.AI.Enabled() {
		logger.Fatal().Str("provider", cfg.AI.Provider).Msg("AI 凭证未配置")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	provider, err := ai.New(ctx, cfg.AI, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("AI provider 初始化失败")
	}

	switch *mode {
	case "chat":
		runChat(ctx, provider, logger, *text)
	case "mood":
		runMood(ctx, provider, logger, *logPath)
	}
}

func runChat(ctx context.Context, provider ai.Provider, logger zerolog.Logger, text string) {
	if strings.TrimSpace(text) == "" {
		logger.Fatal().Msg("chat 模式需要通过 -text 指定消息")
	}

	state := session.New(storage.NewMemoryStore(), session.Options{Logger: logger})
	orch := companion.New(state, provider, nil, companion.Config{}, logger, nil)
	defer orch.Close()

	for _, line := range strings.Split(text, "|") {
		result, err := orch.Send(ctx, line)
		if err != nil {
			logger.Warn().Err(err).Str("text", line).Msg("消息被跳过")
			continue
		}
		reply := result.Fallback
		if result.Reply != nil {
			reply = result.Reply.Text
		}
		fmt.Printf("you: %s\nmindpal: %s\n", result.User.Text, reply)
		if result.Crisis {
			fmt.Println("(检测到危机关键词，已展示求助热线)")
		}
	}

	stats := state.Stats()
	logger.Info().Int("messages", stats.MessageCount).Msg("对话测试结束")
}

func runMood(ctx context.Context, provider ai.Provider, logger zerolog.Logger, logPath string) {
	if logPath == "" {
		logger.Fatal().Msg("mood 模式需要通过 -log 指定对话记录文件")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("读取对话记录失败")
	}

	entry, err := provider.ScoreMood(ctx, strings.TrimSpace(string(data)))
	if err != nil {
		logger.Fatal().Err(err).Msg("情绪分析失败")
	}
	logger.Info().
		Int("score", entry.Score).
		Str("emotion", entry.Emotion).
		Str("notes", entry.Notes).
		Msg("情绪分析成功")
}
