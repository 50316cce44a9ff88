// Package model holds the gorm table definitions for recorded bounce runs.
package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&Frame{},
	&Event{},
}

// Run is one recorded simulation.
type Run struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name" gorm:"size:200"`
	StartTime time.Time `json:"startTime" gorm:"index:idx_run_start"`
	FPS       int       `json:"fps"`
	Zoom      float64   `json:"zoom"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`

	Center geom.Point     `json:"center"` // view center, lon/lat
	Meta   datatypes.JSON `json:"meta"`

	Frames []Frame `json:"-"`
	Events []Event `json:"-"`
}

func (*Run) TableName() string {
	return "runs"
}

// Frame is one applied animation step of a marker.
type Frame struct {
	ID     uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID  uint   `json:"runId" gorm:"index:idx_frame_run_id"`
	Run    Run    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Marker string `json:"marker" gorm:"size:64;index:idx_frame_marker"`

	Time           time.Time  `json:"time" gorm:"index:idx_frame_time"`
	Progress       float64    `json:"progress"`
	Delta          float64    `json:"delta"`
	DropX          float64    `json:"dropX"`
	DropY          float64    `json:"dropY"`
	Position       geom.Point `json:"position"` // marker position after the step, lon/lat
	RemainingLoops int        `json:"remainingLoops"`
}

func (*Frame) TableName() string {
	return "frames"
}

// Event is a marker lifecycle event within a run.
type Event struct {
	ID     uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID  uint   `json:"runId" gorm:"index:idx_event_run_id"`
	Run    Run    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Marker string `json:"marker" gorm:"size:64"`

	Time   time.Time `json:"time"`
	Kind   string    `json:"kind" gorm:"size:32;index:idx_event_kind"`
	Detail string    `json:"detail" gorm:"size:500"`
}

func (*Event) TableName() string {
	return "events"
}
