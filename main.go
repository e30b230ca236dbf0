package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/metrosim/server"
	"github.com/tsinghua-fib-lab/metrosim/task"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// HTTP服务监听地址，优先于配置文件中的server.listen，两者都为空则不启动服务
	listen = flag.String("listen", "", "http listening address (overrides server.listen), e.g. :8080")
	// 是否按墙钟时间节流
	realtime = flag.Bool("realtime", false, "throttle each step to its wall-clock duration")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "metrosim")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	}
	// 未指定配置时全部使用默认值
	c, err := config.Parse(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	t := task.NewContext(c, nil, nil)

	addr := c.Server.Listen
	if *listen != "" {
		addr = *listen
	}
	if addr != "" {
		s := server.NewServer(t)
		go func() {
			if err := s.Start(addr); err != nil {
				log.Errorf("server stopped: %v", err)
			}
		}()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	t.Run(sigCtx, *realtime)
}
