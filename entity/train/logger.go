package train

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "train")
