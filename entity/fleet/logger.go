package fleet

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "fleet")
