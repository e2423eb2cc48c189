// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package engine owns one mapping session: the field frame, its canvas, the
rasterizer painting it, the tile synthesizer reading it and the tile cache.

Rows enter through HandleRow in arrival order. Each row is paired with its
predecessor by a telemetry.Sequencer, and the predecessor's transition is
rasterized once the successor is known.

Two operations stop the world. Reset drains the replay queues and clears
every layer. SwitchField closes the current rasterizer and replaces the
whole session. Both take the engine lock for writing, so no row is
rasterized and no tile is rendered while they run.

Usage:

	eng, err := engine.New(engine.Config{
	    Boundary: boundary,
	    Profile:  plotter.MachineProfile{WidthMeters: 27.432, RowCount: 36},
	    Metrics:  m,
	})
	if err != nil {
	    return err
	}
	defer eng.Close()

	ingestor := telemetry.NewIngestor(sub, telemetry.DefaultTopic, eng, m)
*/
package engine
