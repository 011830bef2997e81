package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/judwhite/go-svc/svc"
	"github.com/mreiferson/go-options"

	"github.com/jvc-remote/go-jvc/internal/app"
	"github.com/jvc-remote/go-jvc/logger"
)

type program struct {
	once sync.Once
	jvcd *JVCD
}

func main() {
	prg := &program{}
	if err := svc.Run(prg, syscall.SIGINT, syscall.SIGTERM); err != nil {
		logger.Fatal("jvcd exited with error", "error", err)
	}
}

func (p *program) Init(env svc.Environment) error {
	if env.IsWindowsService() {
		dir := filepath.Dir(os.Args[0])
		return os.Chdir(dir)
	}

	return nil
}

func (p *program) Start() error {
	opts := NewOptions()

	flagSet := jvcdFlagSet(opts)
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if flagSet.Lookup("version").Value.(flag.Getter).Get().(bool) {
		fmt.Println(app.VersionString("jvcd"))
		os.Exit(0)
	}

	cfg, err := app.LoadConfig(flagSet.Lookup("config").Value.String())
	if err != nil {
		return err
	}
	options.Resolve(opts.Conn, flagSet, cfg)
	options.Resolve(opts, flagSet, cfg)

	if err := opts.Conn.Validate(false); err != nil {
		return err
	}
	opts.Conn.SetupLogger(nil)

	jvcd, err := New(opts)
	if err != nil {
		return err
	}
	p.jvcd = jvcd

	return jvcd.Main()
}

func (p *program) Stop() error {
	p.once.Do(func() {
		if p.jvcd != nil {
			p.jvcd.Exit()
		}
	})

	return nil
}
