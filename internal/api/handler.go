package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// Handler serves the persisted pipeline documents.
type Handler struct {
	reader contract.ResultReader
	store  contract.TrackingStore
}

// NewHandler creates a handler over a document reader. The tracking store
// may be nil, in which case the runs listing is empty.
func NewHandler(reader contract.ResultReader, store contract.TrackingStore) *Handler {
	return &Handler{reader: reader, store: store}
}

// BestModel pairs the selection with the trials it was compared against.
type BestModel struct {
	RunID        string                    `json:"run_id,omitempty"`
	Best         schema.BestKMeans         `json:"best_kmeans"`
	Inertia      float64                   `json:"inertia"`
	DBSCAN       schema.DBSCANResult       `json:"dbscan_results"`
	Hierarchical schema.HierarchicalResult `json:"hierarchical_results"`
}

// GetResults handles GET /api/v1/results
func (h *Handler) GetResults(c *gin.Context) {
	doc, err := h.reader.LoadResults()
	if err != nil {
		documentError(c, err)
		return
	}
	success(c, doc)
}

// GetBestModel handles GET /api/v1/results/best
func (h *Handler) GetBestModel(c *gin.Context) {
	doc, err := h.reader.LoadResults()
	if err != nil {
		documentError(c, err)
		return
	}
	view := BestModel{
		RunID:        doc.RunID,
		Best:         doc.BestKMeans,
		DBSCAN:       doc.DBSCANResults,
		Hierarchical: doc.HierarchicalResults,
	}
	for _, r := range doc.KMeansResults {
		if r.K == doc.BestKMeans.K {
			view.Inertia = r.Inertia
			break
		}
	}
	success(c, view)
}

// GetSweep handles GET /api/v1/results/sweep
// With valid=true only the candidates taking part in selection are listed.
func (h *Handler) GetSweep(c *gin.Context) {
	validOnly, err := strconv.ParseBool(c.DefaultQuery("valid", "false"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid valid parameter")
		return
	}
	doc, err := h.reader.LoadResults()
	if err != nil {
		documentError(c, err)
		return
	}
	sweep := make([]schema.KMeansResult, 0, len(doc.KMeansResults))
	for _, r := range doc.KMeansResults {
		if validOnly && !r.Valid {
			continue
		}
		sweep = append(sweep, r)
	}
	success(c, sweep)
}

// GetDimensionality handles GET /api/v1/dimensionality
func (h *Handler) GetDimensionality(c *gin.Context) {
	doc, err := h.reader.LoadDimensionality()
	if err != nil {
		documentError(c, err)
		return
	}
	success(c, doc)
}

// GetProfiles handles GET /api/v1/profiles
// Profiles are listed largest cluster first; limit=0 lists all of them.
func (h *Handler) GetProfiles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		fail(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	doc, err := h.reader.LoadResults()
	if err != nil {
		documentError(c, err)
		return
	}
	profiles := append([]schema.ClusterProfile{}, doc.ClusterProfiles...)
	sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Size > profiles[j].Size })
	if limit > 0 && limit < len(profiles) {
		profiles = profiles[:limit]
	}
	success(c, profiles)
}

// GetRuns handles GET /api/v1/runs
func (h *Handler) GetRuns(c *gin.Context) {
	runs := []schema.RunRecord{}
	if h.store != nil {
		all, err := h.store.GetAllRuns()
		if err != nil {
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		runs = append(runs, all...)
	}
	success(c, runs)
}
