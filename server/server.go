package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tsinghua-fib-lab/metrosim/task"
)

// 命令等待执行结果的最长时间
const commandTimeout = 5 * time.Second

// Engine 服务所需的仿真接口
type Engine interface {
	Snapshot() *task.Snapshot
	Submit(cmd *task.Command) <-chan bool
}

// Server HTTP服务
// 功能：只读地提供最近一次发布的快照，并把修改请求转为命令提交给仿真线程
type Server struct {
	engine Engine
	e      *echo.Echo
}

// NewServer 创建新的服务器实例
func NewServer(engine Engine) *Server {
	s := &Server{engine: engine, e: echo.New()}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.GET("/snapshot", s.getSnapshot)
	s.e.GET("/geojson", s.getGeoJSON)
	s.e.POST("/lines", s.postLine)
	s.e.POST("/lines/:id/stations", s.postLineStation)
	s.e.DELETE("/lines/:id", s.deleteLine)
	s.e.POST("/autoroute/toggle", s.postToggle)
	s.e.POST("/resources", s.postResources)
	return s
}

// Handler 返回http.Handler，便于测试或嵌入其他服务
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start 启动服务，阻塞直到服务停止
func (s *Server) Start(address string) error {
	log.Infof("server listening at %v", address)
	if err := s.e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server: start")
	}
	return nil
}

// LineRequest 建线请求
type LineRequest struct {
	Stations []int32 `json:"stations"`
	Color    *int    `json:"color,omitempty"`
}

// InsertRequest 插站请求
type InsertRequest struct {
	StationID int32 `json:"station_id"`
	Index     int   `json:"index"`
}

// ResourcesRequest 资源增减请求
type ResourcesRequest struct {
	Trains  int `json:"trains"`
	Lines   int `json:"lines"`
	Permits int `json:"permits"`
}

// Result 命令执行结果
type Result struct {
	OK bool `json:"ok"`
}

func (s *Server) getSnapshot(c echo.Context) error {
	snap := s.engine.Snapshot()
	if snap == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "engine not initialized")
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) getGeoJSON(c echo.Context) error {
	snap := s.engine.Snapshot()
	if snap == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "engine not initialized")
	}
	b, err := snap.GeoJSON()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "application/geo+json", b)
}

func (s *Server) postLine(c echo.Context) error {
	var req LineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Stations) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "a line needs at least 2 stations")
	}
	color := -1
	if req.Color != nil {
		color = *req.Color
	}
	return s.submit(c, &task.Command{Kind: task.CmdCreateLine, Stations: req.Stations, Color: color})
}

func (s *Server) postLineStation(c echo.Context) error {
	id, err := lineID(c)
	if err != nil {
		return err
	}
	var req InsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.submit(c, &task.Command{Kind: task.CmdInsertStation, LineID: id, StationID: req.StationID, Index: req.Index})
}

func (s *Server) deleteLine(c echo.Context) error {
	id, err := lineID(c)
	if err != nil {
		return err
	}
	return s.submit(c, &task.Command{Kind: task.CmdRemoveLine, LineID: id})
}

func (s *Server) postToggle(c echo.Context) error {
	return s.submit(c, &task.Command{Kind: task.CmdToggleAuto})
}

func (s *Server) postResources(c echo.Context) error {
	var req ResourcesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.submit(c, &task.Command{Kind: task.CmdAddResources, Trains: req.Trains, Lines: req.Lines, Permits: req.Permits})
}

// submit 提交命令并等待仿真线程执行
func (s *Server) submit(c echo.Context, cmd *task.Command) error {
	ch := s.engine.Submit(cmd)
	select {
	case ok := <-ch:
		status := http.StatusOK
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, Result{OK: ok})
	case <-time.After(commandTimeout):
		log.Warnf("command %s timed out", cmd)
		return echo.NewHTTPError(http.StatusGatewayTimeout, "engine did not apply command in time")
	case <-c.Request().Context().Done():
		return c.Request().Context().Err()
	}
}

func lineID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid line id")
	}
	return int32(id), nil
}
