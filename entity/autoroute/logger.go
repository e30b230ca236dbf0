package autoroute

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "autoroute")
