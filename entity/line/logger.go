package line

import "github.com/sirupsen/logrus"

// log 线路模块的日志记录器
var log = logrus.WithField("module", "line")
