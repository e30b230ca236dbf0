package task

// 以下方法直接操作仿真状态，只能在仿真线程中调用（Init之后、两步之间，或由命令缓冲区调用）；
// 其他协程应通过Submit提交命令。

// CreateLine 新建线路
// 参数：stations-站点序列（首尾相同表示环线），colorPreference-偏好颜色下标，<0表示自动
// 返回：是否成功
func (ctx *Context) CreateLine(stations []int32, colorPreference int) bool {
	l, err := ctx.lineManager.CreateLine(stations, colorPreference)
	if err != nil {
		log.Debugf("create line %v rejected: %v", stations, err)
		return false
	}
	log.Infof("created %v", l)
	return true
}

// InsertStationIntoLine 在线路的index位置插入站点
func (ctx *Context) InsertStationIntoLine(lineID, stationID int32, index int) bool {
	if err := ctx.lineManager.InsertStation(lineID, stationID, index); err != nil {
		log.Debugf("insert station %d into line %d rejected: %v", stationID, lineID, err)
		return false
	}
	return true
}

// RemoveLine 删除线路
func (ctx *Context) RemoveLine(lineID int32) bool {
	if err := ctx.lineManager.RemoveLine(lineID); err != nil {
		log.Debugf("remove line %d rejected: %v", lineID, err)
		return false
	}
	return true
}

// ToggleAutoRouting 切换自动建线
// 返回：切换后的状态
func (ctx *Context) ToggleAutoRouting() bool {
	return ctx.autoRouter.Toggle()
}

// Counters 当前可用的列车、线路、许可数
func (ctx *Context) Counters() (trains, lines, permits int) {
	w := ctx.world
	return w.AvailableTrains, w.AvailableLines, w.AvailablePermits
}

// AddResources 增减可用的列车、线路、许可数
// 返回：任一计数会变为负数时不做修改并返回false
func (ctx *Context) AddResources(trains, lines, permits int) bool {
	w := ctx.world
	if w.AvailableTrains+trains < 0 || w.AvailableLines+lines < 0 || w.AvailablePermits+permits < 0 {
		return false
	}
	w.AvailableTrains += trains
	w.AvailableLines += lines
	w.AvailablePermits += permits
	return true
}
