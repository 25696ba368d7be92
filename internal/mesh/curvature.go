package mesh

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrEmptyMesh is returned by curvature estimators for a mesh with no points.
	ErrEmptyMesh = errors.New("mesh has no points")
	// ErrNoFaces is returned when a curvature estimator needs connectivity
	// and the mesh has none.
	ErrNoFaces = errors.New("mesh has no faces")
)

// degenerateAreaEpsilon is the squared cross-product norm below which a
// triangle is treated as having zero area and skipped.
const degenerateAreaEpsilon = 1e-24

// cancellationEpsilon is the share of a point's summed edge contributions
// below which its Laplacian is treated as exact cancellation and reported as
// zero curvature.
const cancellationEpsilon = 1e-9

// surfaceVariationEpsilon is the eigenvalue sum below which a neighbourhood is
// considered a single point and given zero variation.
const surfaceVariationEpsilon = 1e-15

// CurvatureFunc computes one scalar per point.
type CurvatureFunc func(m *Mesh) ([]float64, error)

// MeanCurvature estimates the signed mean curvature at every point using the
// cotangent Laplace-Beltrami operator with barycentric vertex areas:
//
//	H(i) = |Δx(i)| / 2,  Δx(i) = (1 / 2A(i)) Σ (cot α + cot β)(x(j) - x(i))
//
// The sign is positive where Δx opposes the area-weighted vertex normal
// (convex regions for outward-facing winding). Points touched by no
// non-degenerate triangle get NaN.
//
// On an open surface the one-sided sum at a boundary point has a large
// in-plane part that says nothing about bending, so only the component of
// Δx along the vertex normal is kept there. A flat patch is zero everywhere,
// border included.
func MeanCurvature(m *Mesh) ([]float64, error) {
	if m.NumPoints() == 0 {
		return nil, ErrEmptyMesh
	}
	if len(m.Faces) == 0 {
		return nil, ErrNoFaces
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	n := len(m.Points)
	lap := make([]r3.Vec, n)
	normal := make([]r3.Vec, n)
	area := make([]float64, n)
	mag := make([]float64, n)
	edgeUse := make(map[[2]int]int, 3*len(m.Faces)/2)

	for _, f := range m.Faces {
		p := [3]r3.Vec{m.Points[f[0]], m.Points[f[1]], m.Points[f[2]]}
		cross := r3.Cross(r3.Sub(p[1], p[0]), r3.Sub(p[2], p[0]))
		cross2 := r3.Dot(cross, cross)
		if cross2 < degenerateAreaEpsilon {
			continue
		}
		crossNorm := math.Sqrt(cross2)
		third := crossNorm / 6 // triangle area / 3

		for c := 0; c < 3; c++ {
			a, b := (c+1)%3, (c+2)%3
			// Angle at corner c is opposite edge (a, b).
			u := r3.Sub(p[a], p[c])
			v := r3.Sub(p[b], p[c])
			cot := r3.Dot(u, v) / crossNorm
			edge := r3.Scale(cot/2, r3.Sub(p[b], p[a]))
			lap[f[a]] = r3.Add(lap[f[a]], edge)
			lap[f[b]] = r3.Sub(lap[f[b]], edge)
			mag[f[a]] += r3.Norm(edge)
			mag[f[b]] += r3.Norm(edge)
			edgeUse[edgeKey(f[a], f[b])]++

			area[f[c]] += third
			normal[f[c]] = r3.Add(normal[f[c]], cross)
		}
	}

	boundary := make([]bool, n)
	for e, uses := range edgeUse {
		if uses == 1 {
			boundary[e[0]] = true
			boundary[e[1]] = true
		}
	}

	out := make([]float64, n)
	for i := range out {
		if area[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		l := lap[i]
		if boundary[i] {
			if nn := r3.Norm(normal[i]); nn > 0 {
				unit := r3.Scale(1/nn, normal[i])
				l = r3.Scale(r3.Dot(l, unit), unit)
			} else {
				l = r3.Vec{}
			}
		}
		if r3.Norm(l) <= cancellationEpsilon*mag[i] {
			continue
		}
		delta := r3.Scale(1/area[i], l)
		h := r3.Norm(delta) / 2
		if r3.Dot(delta, normal[i]) > 0 {
			h = -h
		}
		out[i] = h
	}
	return out, nil
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// SurfaceVariation estimates curvature at every point as λ0/(λ0+λ1+λ2), the
// smallest eigenvalue share of the covariance of the point's one-ring plus
// itself. Flat neighbourhoods give 0; isotropic ones approach 1/3. Points
// with fewer than three neighbourhood members get NaN.
func SurfaceVariation(m *Mesh) ([]float64, error) {
	if m.NumPoints() == 0 {
		return nil, ErrEmptyMesh
	}
	if len(m.Faces) == 0 {
		return nil, ErrNoFaces
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	rings := oneRings(m)
	out := make([]float64, len(m.Points))
	var eig mat.EigenSym
	for i, ring := range rings {
		if len(ring)+1 < 3 {
			out[i] = math.NaN()
			continue
		}
		cov := covariance(m.Points, i, ring)
		if ok := eig.Factorize(cov, false); !ok {
			out[i] = math.NaN()
			continue
		}
		vals := eig.Values(nil)
		sum := vals[0] + vals[1] + vals[2]
		if sum > surfaceVariationEpsilon {
			out[i] = vals[0] / sum
		}
	}
	return out, nil
}

// oneRings returns, for every point, the distinct points sharing a face with it.
func oneRings(m *Mesh) [][]int {
	seen := make([]map[int]struct{}, len(m.Points))
	rings := make([][]int, len(m.Points))
	for _, f := range m.Faces {
		for c := 0; c < 3; c++ {
			i := f[c]
			if seen[i] == nil {
				seen[i] = make(map[int]struct{}, 8)
			}
			for _, j := range [2]int{f[(c+1)%3], f[(c+2)%3]} {
				if j == i {
					continue
				}
				if _, dup := seen[i][j]; dup {
					continue
				}
				seen[i][j] = struct{}{}
				rings[i] = append(rings[i], j)
			}
		}
	}
	return rings
}

func covariance(points []r3.Vec, center int, ring []int) *mat.SymDense {
	nb := make([]r3.Vec, 0, len(ring)+1)
	nb = append(nb, points[center])
	for _, j := range ring {
		nb = append(nb, points[j])
	}

	var mean r3.Vec
	for _, p := range nb {
		mean = r3.Add(mean, p)
	}
	mean = r3.Scale(1/float64(len(nb)), mean)

	var xx, xy, xz, yy, yz, zz float64
	for _, p := range nb {
		d := r3.Sub(p, mean)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	k := float64(len(nb))
	return mat.NewSymDense(3, []float64{
		xx / k, xy / k, xz / k,
		xy / k, yy / k, yz / k,
		xz / k, yz / k, zz / k,
	})
}
