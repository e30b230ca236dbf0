package entity

import (
	"github.com/tsinghua-fib-lab/metrosim/clock"
	"github.com/tsinghua-fib-lab/metrosim/utils/config"
	"github.com/tsinghua-fib-lab/metrosim/utils/randengine"
)

type ITaskContext interface {
	Clock() *clock.Clock
	World() *World
	RuntimeConfig() *config.RuntimeConfig
	Rand() *randengine.Engine
	SpeedModifier() ISpeedModifier

	StationManager() IStationManager
	LineManager() ILineManager
	ETAEstimator() IETAEstimator
	TrainManager() ITrainManager
	PassengerManager() IPassengerManager
	FleetAllocator() IFleetAllocator
	AutoRouter() IAutoRouter
}
