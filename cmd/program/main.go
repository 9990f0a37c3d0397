// Command program 运行无头模式下的车辆展示场景。
//
// 配置按顺序叠加：YAML 文件、PROGRAM_ 前缀的环境变量、可选的 etcd 前缀。
// 标准输入每行一条命令："space" 切换车辆，"resize 800 600" 调整窗口尺寸。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocrud/program"
	"github.com/gocrud/program/config"
	"github.com/gocrud/program/core"
	"github.com/gocrud/program/events"
	"github.com/gocrud/program/logging"
)

func main() {
	configFile := flag.String("config", "program.yaml", "path to YAML config file (optional)")
	etcdEndpoints := flag.String("etcd", "", "comma separated etcd endpoints for remote config")
	etcdPrefix := flag.String("etcd-prefix", "/program/", "etcd key prefix")
	logLevel := flag.String("log-level", "", "override program.log.level")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until interrupted)")
	stdin := flag.Bool("stdin", true, "read host commands from standard input")
	flag.Parse()

	builder := config.NewConfigurationBuilder().
		AddYamlFile(*configFile, true).
		AddEnvironmentVariables("PROGRAM_", program.SettingsSection)
	if *etcdEndpoints != "" {
		builder.AddEtcd(config.EtcdOptions{
			Endpoints: strings.Split(*etcdEndpoints, ","),
			Prefix:    *etcdPrefix,
		})
	}
	cfg, err := builder.Build()
	if err != nil {
		die("load config: %v", err)
	}
	settings, err := program.LoadSettings(cfg)
	if err != nil {
		die("%v", err)
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	logger := program.NewLogger(settings.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kit := newCarKit()
	modules := []core.Module{kit.Module()}
	if settings.RenderMode == string(core.RenderComposer) {
		modules = append(modules, newPostProcessor(postPasses...).Module())
	}
	if *frames > 0 {
		modules = append(modules, program.StopAfter(*frames, cancel))
	}

	p, err := program.New(settings, logger, modules)
	if err != nil {
		die("%v", err)
	}
	if *stdin {
		go readCommands(os.Stdin, p.Input, logger)
	}

	err = program.Run(ctx, p)
	kit.Close()
	if err != nil {
		logger.Error("Program stopped", logging.Err(err))
		os.Exit(1)
	}
}

// readCommands 将标准输入的命令转换为宿主事件
func readCommands(r io.Reader, queue *events.Queue, logger logging.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, payload, err := parseCommand(scanner.Text())
		if err != nil {
			logger.Warn("Ignoring command", logging.Err(err))
			continue
		}
		if name == "" {
			continue
		}
		if !queue.Push(name, payload) {
			logger.Warn("Input queue full, dropping event", logging.F("event", name))
		}
	}
}

func parseCommand(line string) (string, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}
	switch strings.ToLower(fields[0]) {
	case "space":
		return events.EventKeyDown, events.Key{Code: "Space"}, nil
	case "key":
		if len(fields) != 2 {
			return "", nil, fmt.Errorf("usage: key <code>")
		}
		return events.EventKeyDown, events.Key{Code: fields[1]}, nil
	case "resize":
		var r events.Resize
		if len(fields) != 3 {
			return "", nil, fmt.Errorf("usage: resize <width> <height>")
		}
		if _, err := fmt.Sscanf(fields[1]+" "+fields[2], "%d %d", &r.Width, &r.Height); err != nil {
			return "", nil, fmt.Errorf("resize: %w", err)
		}
		return events.EventWindowResize, r, nil
	}
	return "", nil, fmt.Errorf("unknown command %q", fields[0])
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
