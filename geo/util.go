// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package geo

import (
	"math"

	"github.com/tidwall/geojson/geometry"
)

var DEG_TO_RAD float64 = 0.017453292519943295769236907684886127134428718885417254560

// Convert latitude/longitude to web mercator coordinates
func latLngToWebMerc(lat float64, lng float64) (float64, float64) {
	x := 6378137.0 * lng * DEG_TO_RAD
	a := lat * DEG_TO_RAD

	return x, 3189068.5 * math.Log((1.0+math.Sin(a))/(1.0-math.Sin(a)))
}

// Calculate the perpendicular distance from points p to line segment [a, b]
func perpendicularDist(px, py, lax, lay, lbx, lby float64) float64 {
	d := dist(lax, lay, lbx, lby) * dist(lax, lay, lbx, lby)

	if d == 0 {
		return dist(px, py, lax, lay)
	}
	t := float64((px-lax)*(lbx-lax)+(py-lay)*(lby-lay)) / d
	if t < 0 {
		return dist(px, py, lax, lay)
	} else if t > 1 {
		return dist(px, py, lbx, lby)
	}

	return dist(px, py, lax+t*(lbx-lax), lay+t*(lby-lay))
}

// Calculate the distance between two points (x1, y1) and (x2, y2)
func dist(x1 float64, y1 float64, x2 float64, y2 float64) float64 {
	return math.Sqrt(float64((x2-x1)*(x2-x1) + (y2-y1)*(y2-y1)))
}

// Calculate the distance in meter between two lat,lng pairs
func haversine(latA float64, lonA float64, latB float64, lonB float64) float64 {
	latA = latA * DEG_TO_RAD
	lonA = lonA * DEG_TO_RAD
	latB = latB * DEG_TO_RAD
	lonB = lonB * DEG_TO_RAD

	dlat := latB - latA
	dlon := lonB - lonA

	sindlat := math.Sin(dlat / 2)
	sindlon := math.Sin(dlon / 2)

	a := sindlat*sindlat + math.Cos(latA)*math.Cos(latB)*sindlon*sindlon

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * 6378137.0
}

// Length returns the length of a (lon, lat) line in meters
func Length(pts []geometry.Point) float64 {
	l := 0.0
	for i := 1; i < len(pts); i++ {
		l += haversine(pts[i-1].Y, pts[i-1].X, pts[i].Y, pts[i].X)
	}
	return l
}

// Simplify a (lon, lat) line using the Douglas-Peucker algorithm, epsilon
// is given in web mercator meters
func Simplify(pts []geometry.Point, epsilon float64) []geometry.Point {
	if len(pts) < 3 || epsilon <= 0 {
		return pts
	}

	var maxD float64
	var maxI int

	// reproject to web mercator to be on euclidean plane
	lax, lay := latLngToWebMerc(pts[0].Y, pts[0].X)
	lbx, lby := latLngToWebMerc(pts[len(pts)-1].Y, pts[len(pts)-1].X)

	for i := 1; i < len(pts)-1; i++ {
		px, py := latLngToWebMerc(pts[i].Y, pts[i].X)
		d := perpendicularDist(px, py, lax, lay, lbx, lby)
		if d > maxD {
			maxI = i
			maxD = d
		}
	}

	if maxD > epsilon {
		retA := Simplify(pts[:maxI+1], epsilon)
		retB := Simplify(pts[maxI:], epsilon)

		return append(append([]geometry.Point(nil), retA[:len(retA)-1]...), retB...)
	}

	return []geometry.Point{pts[0], pts[len(pts)-1]}
}
