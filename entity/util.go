package entity

import "github.com/samber/lo"

// LineTouchesHub 线路是否经过换乘站或终点站
func LineTouchesHub(sm IStationManager, l *Line) bool {
	return lo.SomeBy(l.Stations, func(id int32) bool {
		s := sm.Get(id)
		return s != nil && s.IsHub()
	})
}
