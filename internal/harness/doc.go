// Package harness runs leap second synthesis scenarios.
//
// A scenario describes a synthetic ΔTAI curve, the scan range and the
// official overrides to apply, and asserts on the resulting schedule.
// Scenarios pin down scanner behaviour on curves small enough to reason
// about by hand.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: steady_drift
//	description: "A steady drift gets one leap per second of drift"
//	timeline:
//	  points:
//	    - { day: "2000-01-01", value: 0.0 }
//	    - { day: "2010-01-01", value: 4.2 }
//	range: { start: "2000-01-01", end: "2010-01-01" }
//	overrides: [iers]
//	assertions:
//	  - type: leap_count
//	    count: 4
//	  - type: leap_on
//	    day: "2005-12-31"
//	    length: 86401
//
// Values are ΔTAI in seconds. Days between points are interpolated
// linearly. Bounds default to the first and last point, so the whole curve
// is used as given.
//
// # Assertion Types
//
//   - leap_count: the schedule has exactly count extraordinary days
//   - leap_on: day is extraordinary with the given length
//   - no_leap: day is an ordinary day
//   - dtai: the row for day carries DTAI value
//   - max_priority: every scanner decision chose a day of at most this class
//
// # Golden Files
//
// RunWithGolden renders the schedule and the scanner decisions as text and
// compares them with testdata/golden/<name>.golden.
package harness
