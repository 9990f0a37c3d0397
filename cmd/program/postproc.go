package main

import (
	"context"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/engine/headless"
	"github.com/gocrud/program/logging"
)

// 合成器模式下追加在场景渲染通道之后的后处理通道
var postPasses = []string{"Glitch", "Pixelation"}

// postProcessor 在初始化阶段向合成器追加具名后处理通道
type postProcessor struct {
	passes []string
}

func newPostProcessor(passes ...string) *postProcessor {
	return &postProcessor{passes: passes}
}

func (p *postProcessor) Module() core.Module {
	return core.NewModule("CarKitPostProcessor", core.OnInit(p.init))
}

func (p *postProcessor) init(ctx context.Context, c *core.Context) error {
	if c.Composer == nil {
		c.Logger().Warn("Composer unavailable, skipping post-processing passes")
		return nil
	}
	for _, name := range p.passes {
		c.Composer.AddPass(headless.NewPass(name))
	}
	c.Logger().Debug("Post-processing passes added", logging.F("passes", len(p.passes)))
	return nil
}
