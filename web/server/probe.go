package server

import (
	"net/http"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/fieldmap"
)

// ComplexJSON is a complex number as {re, im}
type ComplexJSON struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

// ProbeResponse represents the field at one point
type ProbeResponse struct {
	Point    [3]float64     `json:"point"`
	Layer    int            `json:"layer"`    // -1 outside the particle
	Material string         `json:"material"` // "host" outside the particle
	E        [3]ComplexJSON `json:"E"`
	H        [3]ComplexJSON `json:"H"`
	S        [3]float64     `json:"S"`
	Eabs     float64        `json:"Eabs"`
	Habs     float64        `json:"Habs"`
	Pabs     float64        `json:"Pabs"`
}

func complexTriple(v core.CVec3) [3]ComplexJSON {
	return [3]ComplexJSON{
		{real(v.X), imag(v.X)},
		{real(v.Y), imag(v.Y)},
		{real(v.Z), imag(v.Z)},
	}
}

// handleProbe samples E and H at a point and reports S = Re(E × H*)
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	req, err := parseProbeRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sc, err := s.buildScene(&PlotRequest{Scene: req.Scene})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := core.NewVec3(req.X, req.Y, req.Z)
	sample, err := sc.Sampler.Sample(p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	layer := sc.Particle.Region(p.Length())
	material := "host"
	if layer >= 0 {
		material = sc.Config.Layers[layer].Material
	}
	poynting := sample.Poynting()

	writeJSON(w, http.StatusOK, ProbeResponse{
		Point:    [3]float64{p.X, p.Y, p.Z},
		Layer:    layer,
		Material: material,
		E:        complexTriple(sample.E),
		H:        complexTriple(sample.H),
		S:        [3]float64{poynting.X, poynting.Y, poynting.Z},
		Eabs:     fieldmap.Eabs.Of(sample),
		Habs:     fieldmap.Habs.Of(sample),
		Pabs:     fieldmap.Pabs.Of(sample),
	})
}
