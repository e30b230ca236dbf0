package passenger

import (
	"github.com/tsinghua-fib-lab/metrosim/entity"
)

// Exchange 列车到站时的上下车处理
// 功能：先下车后上车，上车受剩余容量限制
// 参数：t-列车，l-线路，at-到达的站点，boardOnly-只上车不下车
// 算法说明：
// 1. 目的地为本站的乘客送达
// 2. 本线不经过目的地的乘客下车换乘：回到站点队列，最早上车时间推迟一个换乘时间，换乘次数+1
// 3. 按队列顺序逐个评估上车规则，剩余容量为0后不再上车；未上车的乘客保持原有顺序
func (m *PassengerManager) Exchange(t *entity.Train, l *entity.Line, at *entity.Station, boardOnly bool) {
	now := m.ctx.Clock().T
	w := m.ctx.World()

	if !boardOnly {
		stay := make([]*entity.Passenger, 0, len(t.Passengers))
		for _, p := range t.Passengers {
			switch {
			case p.Destination == at.ID:
				m.deliver(p, at, l.ID)
			case !l.Has(p.Destination):
				p.TransferReadyAt = now + m.transferTime(at)
				p.TransferCount++
				p.QueuedAt = now
				at.Queue = append(at.Queue, p)
				w.Stats.Transfers++
			default:
				stay = append(stay, p)
			}
		}
		t.Passengers = stay
	}

	free := t.Free()
	if free == 0 || len(at.Queue) == 0 {
		return
	}
	// 决策在修改队列之前完成，保证同一次到站中每个乘客看到的状态一致
	board := make([]bool, len(at.Queue))
	for i, p := range at.Queue {
		if free == 0 {
			break
		}
		if now < p.TransferReadyAt || p.Destination == at.ID {
			continue
		}
		if m.ShouldBoardLineHere(l, at, p) {
			board[i] = true
			free--
		}
	}
	remain := make([]*entity.Passenger, 0, len(at.Queue))
	for i, p := range at.Queue {
		if board[i] {
			t.Passengers = append(t.Passengers, p)
		} else {
			remain = append(remain, p)
		}
	}
	at.Queue = remain
}

// transferTime 在站点换乘所需的时间（换乘站有折扣）
func (m *PassengerManager) transferTime(at *entity.Station) float64 {
	c := m.ctx.RuntimeConfig().Network
	t := at.MCT
	if at.IsInterchange {
		t *= c.InterchangeDiscount
	}
	return t * c.TransferMultiplier
}
