package task

import "fmt"

// CommandKind 外部命令类型
type CommandKind string

const (
	CmdCreateLine    CommandKind = "create_line"
	CmdInsertStation CommandKind = "insert_station"
	CmdRemoveLine    CommandKind = "remove_line"
	CmdToggleAuto    CommandKind = "toggle_auto_routing"
	CmdAddResources  CommandKind = "add_resources"
)

// Command 外部命令
// 功能：其他协程（如HTTP服务）对仿真状态的修改请求，在下一步的准备阶段统一执行
type Command struct {
	Kind      CommandKind `json:"kind"`
	Stations  []int32     `json:"stations,omitempty"`
	LineID    int32       `json:"line_id,omitempty"`
	StationID int32       `json:"station_id,omitempty"`
	Index     int         `json:"index,omitempty"`
	Color     int         `json:"color,omitempty"`
	Trains    int         `json:"trains,omitempty"`
	Lines     int         `json:"lines,omitempty"`
	Permits   int         `json:"permits,omitempty"`

	result chan bool
}

// Submit 提交命令
// 功能：加入命令缓冲区，返回接收执行结果的通道（容量为1，执行后写入一次）
// 说明：可以被任意协程调用
func (ctx *Context) Submit(cmd *Command) <-chan bool {
	cmd.result = make(chan bool, 1)
	ctx.commandsMutex.Lock()
	defer ctx.commandsMutex.Unlock()
	ctx.commands = append(ctx.commands, cmd)
	return cmd.result
}

// applyCommands 执行缓冲区中的所有命令
func (ctx *Context) applyCommands() {
	ctx.commandsMutex.Lock()
	commands := ctx.commands
	ctx.commands = make([]*Command, 0)
	ctx.commandsMutex.Unlock()

	for _, cmd := range commands {
		ok := ctx.execute(cmd)
		log.Debugf("command %s: %v", cmd, ok)
		if cmd.result != nil {
			cmd.result <- ok
		}
	}
}

func (ctx *Context) execute(cmd *Command) bool {
	switch cmd.Kind {
	case CmdCreateLine:
		return ctx.CreateLine(cmd.Stations, cmd.Color)
	case CmdInsertStation:
		return ctx.InsertStationIntoLine(cmd.LineID, cmd.StationID, cmd.Index)
	case CmdRemoveLine:
		return ctx.RemoveLine(cmd.LineID)
	case CmdToggleAuto:
		ctx.ToggleAutoRouting()
		return true
	case CmdAddResources:
		return ctx.AddResources(cmd.Trains, cmd.Lines, cmd.Permits)
	}
	log.Warnf("unknown command kind %q", cmd.Kind)
	return false
}

func (cmd *Command) String() string {
	return fmt.Sprintf("Command{%s line=%d station=%d stations=%v}", cmd.Kind, cmd.LineID, cmd.StationID, cmd.Stations)
}
