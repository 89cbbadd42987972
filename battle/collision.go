package battle

import "math"

// Hit pairs a projectile with the combatant it struck this tick.
type Hit struct {
	ProjectileID string
	TargetID     string

	projectileIndex int
}

// detectHits runs the two-phase collision pass. The broad phase re-buckets
// every projectile's swept bounds into the grid; the narrow phase sweeps the
// projectile's path for the tick against each candidate hurtbox so a fast
// projectile cannot tunnel through a thin target. Each overlapping pair is
// reported exactly once.
func detectHits(grid *spatialGrid, projectiles []*Projectile, targets []*combatantState) []Hit {
	if len(projectiles) == 0 || len(targets) == 0 {
		return nil
	}

	grid.reset()
	for i, p := range projectiles {
		if p == nil {
			continue
		}
		grid.insert(i, sweptBounds(p))
	}

	var hits []Hit
	candidates := make([]int, 0, 16)
	seen := make(map[int]bool, 8)

	for _, target := range targets {
		if target == nil || target.hp <= 0 {
			continue
		}
		box := target.hurtbox()
		candidates = grid.query(box, candidates[:0])
		for k := range seen {
			delete(seen, k)
		}
		for _, index := range candidates {
			if seen[index] {
				continue
			}
			seen[index] = true
			p := projectiles[index]
			if p == nil || p.OwnerID == target.id {
				continue
			}
			if sweptOverlap(p, box) {
				hits = append(hits, Hit{
					ProjectileID:    p.ID,
					TargetID:        target.id,
					projectileIndex: index,
				})
			}
		}
	}
	return hits
}

// sweptBounds is the AABB covering the projectile's whole path this tick.
func sweptBounds(p *Projectile) aabb {
	halfW, halfH := p.Width/2, p.Height/2
	at := func(x, y float64) aabb {
		return aabb{minX: x - halfW, minY: y - halfH, maxX: x + halfW, maxY: y + halfH}
	}
	return at(p.prevX, p.prevY).union(at(p.X, p.Y))
}

// sweptOverlap tests the projectile's center segment for the tick against
// the target box inflated by the projectile's half extents (a Minkowski sum,
// so the segment test is exact for the moving box).
func sweptOverlap(p *Projectile, box aabb) bool {
	expanded := aabb{
		minX: box.minX - p.Width/2,
		minY: box.minY - p.Height/2,
		maxX: box.maxX + p.Width/2,
		maxY: box.maxY + p.Height/2,
	}
	return segmentIntersectsAABB(p.prevX, p.prevY, p.X, p.Y, expanded)
}

// segmentIntersectsAABB is the standard slab test. A zero-length segment
// degenerates to point containment.
func segmentIntersectsAABB(x0, y0, x1, y1 float64, box aabb) bool {
	dx := x1 - x0
	dy := y1 - y0

	tmin := 0.0
	tmax := 1.0

	for _, axis := range [2]struct {
		origin, delta, min, max float64
	}{
		{x0, dx, box.minX, box.maxX},
		{y0, dy, box.minY, box.maxY},
	} {
		if math.Abs(axis.delta) < 1e-12 {
			if axis.origin < axis.min || axis.origin > axis.max {
				return false
			}
			continue
		}
		inv := 1.0 / axis.delta
		t1 := (axis.min - axis.origin) * inv
		t2 := (axis.max - axis.origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
