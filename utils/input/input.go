package input

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
	"gopkg.in/yaml.v2"
)

// Station 场景文件中的站点
type Station struct {
	ID          int32   `yaml:"id"`
	Name        string  `yaml:"name,omitempty"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Final       bool    `yaml:"final,omitempty"`
	Interchange bool    `yaml:"interchange,omitempty"`
	MCT         float64 `yaml:"mct,omitempty"`        // 最小换乘时间（毫秒），0表示使用默认值
	Turnaround  float64 `yaml:"turnaround,omitempty"` // 停站时间（毫秒），0表示使用默认值
}

// Scenario 初始场景
type Scenario struct {
	Stations []Station `yaml:"stations"`
	Lines    [][]int32 `yaml:"lines,omitempty"` // 预置线路（按站点ID序列）
}

// Input 输入数据
// 功能：存储仿真启动所需的所有输入数据
type Input struct {
	Scenario Scenario
}

// Parse 解析场景YAML
// 功能：严格模式解析并检查站点ID唯一性与坐标有限性
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrap(err, "input: unmarshal scenario")
	}
	ids := make(map[int32]struct{}, len(s.Stations))
	for _, st := range s.Stations {
		if _, ok := ids[st.ID]; ok {
			return nil, errors.Errorf("input: duplicated station id %d", st.ID)
		}
		ids[st.ID] = struct{}{}
		if math.IsNaN(st.X) || math.IsInf(st.X, 0) || math.IsNaN(st.Y) || math.IsInf(st.Y, 0) {
			return nil, errors.Errorf("input: station %d has non-finite position", st.ID)
		}
	}
	for i, line := range s.Lines {
		for _, id := range line {
			if _, ok := ids[id]; !ok {
				return nil, errors.Errorf("input: line %d refers to unknown station %d", i, id)
			}
		}
	}
	return &s, nil
}

// Load 从文件加载场景
func Load(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "input: read scenario %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "input: parse scenario %s", path)
	}
	return &Input{Scenario: *s}, nil
}

// Init 下载数据
// 功能：根据配置加载初始场景，未配置场景文件时返回空场景
// 说明：加载失败直接panic，与其他启动阶段错误的处理方式一致
func Init(c config.Config) *Input {
	if c.Input.Scenario == "" {
		log.Info("no scenario file, start with an empty map")
		return &Input{}
	}
	res, err := Load(c.Input.Scenario)
	if err != nil {
		log.Panicf("failed to load scenario: %v", err)
	}
	log.Infof("scenario loaded: %d stations, %d lines", len(res.Scenario.Stations), len(res.Scenario.Lines))
	return res
}
