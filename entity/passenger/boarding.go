package passenger

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/metrosim/entity"
	"github.com/tsinghua-fib-lab/metrosim/entity/network"
)

// boardingCase 一次上车决策的输入
type boardingCase struct {
	line   *entity.Line
	at     *entity.Station
	p      *entity.Passenger
	waited float64
}

// boardingRule 上车规则：满足when则上车
type boardingRule struct {
	name string
	when func(m *PassengerManager, c *boardingCase) bool
}

// defaultRules 上车规则表，第一个匹配的规则生效
// 说明：hub-bootstrap与emergency可能对同一乘客同时成立，按表中顺序取前者
func defaultRules() []boardingRule {
	return []boardingRule{
		{"destination-on-line", func(m *PassengerManager, c *boardingCase) bool {
			return c.line.Has(c.p.Destination)
		}},
		{"neighbor-reduces-eta", func(m *PassengerManager, c *boardingCase) bool {
			eta := m.ctx.ETAEstimator()
			return lo.SomeBy(c.line.Neighbors(c.at.ID), func(nb int32) bool {
				return eta.StepReducesETA(c.at.ID, nb, c.p.Destination)
			})
		}},
		{"neighbor-transfer", func(m *PassengerManager, c *boardingCase) bool {
			return lo.SomeBy(c.line.Neighbors(c.at.ID), func(nb int32) bool {
				return m.transferServes(nb, c.line.ID, c.p.Destination)
			})
		}},
		{"crowded-relief", func(m *PassengerManager, c *boardingCase) bool {
			return len(c.at.Queue) > m.crowdedThreshold() && m.touchesHub(c.line)
		}},
		{"hub-bootstrap", func(m *PassengerManager, c *boardingCase) bool {
			hs := m.ctx.RuntimeConfig().HubSpoke
			return hs.Enabled &&
				m.touchesHub(c.line) &&
				c.waited > m.ctx.RuntimeConfig().Passenger.HubBootstrapWait/hs.Bias &&
				!network.Finite(m.ctx.ETAEstimator().EstimateETA(c.at.ID, c.p.Destination))
		}},
		{"long-wait", func(m *PassengerManager, c *boardingCase) bool {
			return c.waited > m.ctx.RuntimeConfig().Passenger.LongWait && m.touchesHub(c.line)
		}},
		{"emergency", func(m *PassengerManager, c *boardingCase) bool {
			return c.waited > m.ctx.RuntimeConfig().Passenger.EmergencyWait
		}},
	}
}

// BoardingRule 返回第一个匹配的上车规则名，不上车时返回空字符串
func (m *PassengerManager) BoardingRule(l *entity.Line, at *entity.Station, p *entity.Passenger) string {
	now := m.ctx.Clock().T
	c := &boardingCase{line: l, at: at, p: p, waited: p.Waited(now)}
	for _, r := range m.rules {
		if r.when(m, c) {
			return r.name
		}
	}
	return ""
}

// ShouldBoardLineHere 上车决策
// 功能：判断在站点at等待的乘客p是否登上线路l的列车
// 说明：只读取当前状态，相同状态下多次调用结果相同
func (m *PassengerManager) ShouldBoardLineHere(l *entity.Line, at *entity.Station, p *entity.Passenger) bool {
	return m.BoardingRule(l, at, p) != ""
}

// transferServes 站点nb上除exclude外是否有线路经过destination
func (m *PassengerManager) transferServes(nb, exclude, destination int32) bool {
	st := m.ctx.StationManager().Get(nb)
	if st == nil {
		return false
	}
	lm := m.ctx.LineManager()
	return lo.SomeBy(st.ConnectionIDs(), func(id int32) bool {
		if id == exclude {
			return false
		}
		other := lm.Get(id)
		return other != nil && other.Has(destination)
	})
}

func (m *PassengerManager) touchesHub(l *entity.Line) bool {
	return entity.LineTouchesHub(m.ctx.StationManager(), l)
}

// crowdedThreshold 拥挤判定的排队长度，随天数降低
func (m *PassengerManager) crowdedThreshold() int {
	c := m.ctx.RuntimeConfig().Passenger
	return max(c.CrowdedQueueMin, c.CrowdedQueueBase-(m.day()-1))
}
