package plugins

import (
	"context"
	"fmt"

	"github.com/gocrud/program/core"
	"github.com/gocrud/program/engine"
)

// AxesSize 坐标轴辅助对象的长度
const AxesSize = 100

func mainCamera(c *core.Context) (engine.Camera, error) {
	obj, ok := c.Scene.ObjectByName(core.MainCameraName)
	if !ok {
		return nil, fmt.Errorf("plugins: %s not found in scene", core.MainCameraName)
	}
	cam, ok := obj.(engine.Camera)
	if !ok {
		return nil, fmt.Errorf("plugins: %s is %T, not a camera", core.MainCameraName, obj)
	}
	return cam, nil
}

// DebugTools 调试工具：主相机的轨道控制器与坐标轴
//
// 控制器以 OrbitControlsKey 存入上下文，每帧更新一次。
func DebugTools() core.Module {
	var controls engine.Controls
	return core.NewModule("DebugToolsPlugin",
		core.OnInit(func(ctx context.Context, c *core.Context) error {
			cam, err := mainCamera(c)
			if err != nil {
				return err
			}
			controls = c.Engine().NewOrbitControls(cam, c.Surface)
			c.Provide(OrbitControlsKey, controls)
			c.Scene.Add(c.Engine().NewAxesHelper(AxesSize))
			return nil
		}),
		core.OnAnimate(func(c *core.Context) error {
			if controls != nil {
				controls.Update()
			}
			return nil
		}),
	)
}

// CameraHelper 复制主相机为 HelperCamera，并添加其视锥辅助对象
func CameraHelper() core.Module {
	return core.NewModule("CameraHelperPlugin",
		core.OnInit(func(ctx context.Context, c *core.Context) error {
			cam, err := mainCamera(c)
			if err != nil {
				return err
			}
			helperCamera := cam.Clone(HelperCameraKey)
			c.Provide(HelperCameraKey, helperCamera)
			c.Scene.Add(c.Engine().NewCameraHelper(helperCamera))
			return nil
		}),
	)
}
