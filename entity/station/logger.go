package station

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "station")
