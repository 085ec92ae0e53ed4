package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/labelscore-mcp/internal/imaging"
	"github.com/ironsheep/labelscore-mcp/internal/ingredients"
	"github.com/ironsheep/labelscore-mcp/internal/label"
	"github.com/ironsheep/labelscore-mcp/internal/labeling"
	"github.com/ironsheep/labelscore-mcp/internal/ocr"
	"github.com/ironsheep/labelscore-mcp/internal/preferences"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
)

var (
	errNoModel = errors.New("no scoring model loaded")
	errNoOCR   = errors.New("label reading is not available: OCR is not configured")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "score_product").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// invalidArgsError marks argument problems, reported as JSON-RPC -32602.
type invalidArgsError struct {
	err error
}

func (e *invalidArgsError) Error() string { return "invalid arguments: " + e.err.Error() }
func (e *invalidArgsError) Unwrap() error { return e.err }

func invalidArgs(format string, a ...interface{}) error {
	return &invalidArgsError{err: fmt.Errorf(format, a...)}
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return &invalidArgsError{err: err}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return -32602; other tool errors return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	s.logger.Debug("tool call", "tool", params.Name)

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err, "elapsed", time.Since(start))
		var argErr *invalidArgsError
		if errors.As(err, &argErr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool done", "tool", params.Name, "elapsed", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Label Reading
	case "label_extract_ingredients":
		return s.handleLabelExtractIngredients(ctx, args)
	case "ingredients_segment":
		return s.handleIngredientsSegment(args)

	// Features and Scoring
	case "features_extract":
		return s.handleFeaturesExtract(ctx, args)
	case "score_predict":
		return s.handleScorePredict(args)
	case "score_product":
		return s.handleScoreProduct(ctx, args)
	case "score_batch":
		return s.handleScoreBatch(ctx, args)
	case "label_formula_score":
		return s.handleLabelFormulaScore(args)

	// Preferences
	case "preferences_create":
		return s.handlePreferencesCreate(ctx)
	case "preferences_get":
		return s.handlePreferencesGet(ctx, args)
	case "preferences_save":
		return s.handlePreferencesSave(ctx, args)
	case "preferences_apply_diet":
		return s.handlePreferencesApplyDiet(ctx, args)

	// Status
	case "model_info":
		return s.handleModelInfo(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Label Reading Handlers ===

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// rect keeps the corners as given so inverted regions are rejected rather
// than silently swapped.
func (r *regionArgs) rect() *image.Rectangle {
	if r == nil {
		return nil
	}
	return &image.Rectangle{Min: image.Pt(r.X1, r.Y1), Max: image.Pt(r.X2, r.Y2)}
}

type imageSourceArgs struct {
	Path        string      `json:"path"`
	ImageBase64 string      `json:"image_base64"`
	Region      *regionArgs `json:"region,omitempty"`
}

func (a imageSourceArgs) empty() bool {
	return a.Path == "" && a.ImageBase64 == ""
}

// decodeBase64Image accepts plain base64 or a data: URL.
func decodeBase64Image(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	s = strings.TrimSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return raw, nil
		}
		return nil, invalidArgs("image_base64: %v", err)
	}
	return data, nil
}

func (s *Server) loadImage(src imageSourceArgs) (image.Image, error) {
	switch {
	case src.Path != "":
		return s.cache.Load(src.Path)
	case src.ImageBase64 != "":
		data, err := decodeBase64Image(src.ImageBase64)
		if err != nil {
			return nil, err
		}
		return imaging.Decode(data)
	default:
		return nil, invalidArgs("path or image_base64 is required")
	}
}

func (s *Server) readLabel(ctx context.Context, src imageSourceArgs) (*label.Result, error) {
	if s.reader == nil {
		return nil, errNoOCR
	}
	img, err := s.loadImage(src)
	if err != nil {
		return nil, err
	}
	return s.reader.ReadImage(ctx, img, src.Region.rect())
}

type labelExtractArgs struct {
	imageSourceArgs
	IncludePreview bool `json:"include_preview"`
}

type labelExtractResult struct {
	Ingredients   []string `json:"ingredients"`
	Count         int      `json:"count"`
	Lines         []string `json:"lines"`
	Text          string   `json:"text"`
	Width         int      `json:"width"`
	Height        int      `json:"height"`
	PreviewBase64 string   `json:"preview_base64,omitempty"`
	MimeType      string   `json:"mime_type,omitempty"`
}

func (s *Server) handleLabelExtractIngredients(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.readLabel(ctx, a.imageSourceArgs)
	if err != nil {
		return nil, err
	}
	out := &labelExtractResult{
		Ingredients: res.Ingredients,
		Count:       len(res.Ingredients),
		Lines:       res.Lines,
		Text:        res.Text,
		Width:       res.Width,
		Height:      res.Height,
	}
	if a.IncludePreview {
		out.PreviewBase64 = base64.StdEncoding.EncodeToString(res.Preprocessed)
		out.MimeType = "image/png"
	}
	return out, nil
}

type segmentArgs struct {
	Text string `json:"text"`
}

type segmentResult struct {
	Ingredients []string `json:"ingredients"`
	Count       int      `json:"count"`
}

func (s *Server) handleIngredientsSegment(args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	list := ingredients.Segment(ingredients.JoinRecognized([]string{a.Text}))
	return &segmentResult{Ingredients: list, Count: len(list)}, nil
}

// === Feature and Scoring Handlers ===

// preferenceArgs names a stored profile or carries the keyword lists inline.
type preferenceArgs struct {
	UserID    string   `json:"user_id"`
	Likes     []string `json:"likes"`
	Dislikes  []string `json:"dislikes"`
	Allergens []string `json:"allergens"`
}

func (s *Server) resolvePreferences(ctx context.Context, a preferenceArgs) (preferences.Preferences, error) {
	if a.UserID != "" {
		return s.store.Get(ctx, a.UserID)
	}
	return preferences.Preferences{
		Likes:     a.Likes,
		Dislikes:  a.Dislikes,
		Allergens: a.Allergens,
	}, nil
}

type featuresExtractArgs struct {
	Ingredients []string `json:"ingredients"`
	preferenceArgs
}

type matchedKeywords struct {
	Liked     []string `json:"liked"`
	Disliked  []string `json:"disliked"`
	Allergens []string `json:"allergens"`
}

type featuresResult struct {
	Features ingredients.Features `json:"features"`
	Vector   []float64            `json:"vector"`
	Matched  matchedKeywords      `json:"matched"`
}

func (s *Server) handleFeaturesExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a featuresExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	prefs, err := s.resolvePreferences(ctx, a.preferenceArgs)
	if err != nil {
		return nil, err
	}
	f := prefs.Features(a.Ingredients)
	return &featuresResult{
		Features: f,
		Vector:   f.Vector(),
		Matched: matchedKeywords{
			Liked:     ingredients.MatchedKeywords(a.Ingredients, prefs.Likes),
			Disliked:  ingredients.MatchedKeywords(a.Ingredients, prefs.Dislikes),
			Allergens: ingredients.MatchedKeywords(a.Ingredients, prefs.Allergens),
		},
	}, nil
}

func checkFeatures(f ingredients.Features) error {
	if f.NumIngredients < 0 || f.NumLikedMatches < 0 || f.NumDislikedMatches < 0 || f.NumAllergenMatches < 0 {
		return invalidArgs("feature counts must not be negative: %+v", f)
	}
	return nil
}

type scorePredictArgs struct {
	Features *ingredients.Features `json:"features"`
}

type scoreResult struct {
	SuitabilityScore float64 `json:"suitability_score"`
}

func (s *Server) handleScorePredict(args json.RawMessage) (interface{}, error) {
	var a scorePredictArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Features == nil {
		return nil, invalidArgs("features is required")
	}
	if err := checkFeatures(*a.Features); err != nil {
		return nil, err
	}
	if s.predictor == nil {
		return nil, errNoModel
	}
	score, err := s.predictor.Predict(*a.Features)
	if err != nil {
		return nil, err
	}
	return &scoreResult{SuitabilityScore: score}, nil
}

type productArgs struct {
	Ingredients []string `json:"ingredients"`
	imageSourceArgs
	preferenceArgs
}

type productResult struct {
	Ingredients      []string             `json:"ingredients"`
	Features         ingredients.Features `json:"features"`
	SuitabilityScore float64              `json:"suitability_score"`
	FormulaScore     float64              `json:"formula_score"`
}

// scoreProduct resolves ingredients and preferences for one product and
// predicts its score.
func (s *Server) scoreProduct(ctx context.Context, p productArgs) (*productResult, error) {
	if s.predictor == nil {
		return nil, errNoModel
	}

	list := p.Ingredients
	if list == nil {
		if p.imageSourceArgs.empty() {
			return nil, invalidArgs("ingredients, path or image_base64 is required")
		}
		res, err := s.readLabel(ctx, p.imageSourceArgs)
		if err != nil {
			return nil, err
		}
		list = res.Ingredients
	}

	prefs, err := s.resolvePreferences(ctx, p.preferenceArgs)
	if err != nil {
		return nil, err
	}

	f := prefs.Features(list)
	score, err := s.predictor.Predict(f)
	if err != nil {
		return nil, err
	}
	return &productResult{
		Ingredients:      ingredients.Normalize(list),
		Features:         f,
		SuitabilityScore: score,
		FormulaScore:     scoring.Round2(labeling.ScoreFeatures(f, s.weights)),
	}, nil
}

func (s *Server) handleScoreProduct(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a productArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.scoreProduct(ctx, a)
}

type scoreBatchArgs struct {
	Products []productArgs `json:"products"`
}

type batchItem struct {
	Index  int            `json:"index"`
	Result *productResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type scoreBatchResult struct {
	Results []batchItem `json:"results"`
	Scored  int         `json:"scored"`
	Failed  int         `json:"failed"`
}

// handleScoreBatch scores products concurrently, at most s.concurrency at a
// time. Per-product failures are reported inline; only cancellation aborts
// the batch.
func (s *Server) handleScoreBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scoreBatchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Products == nil {
		return nil, invalidArgs("products is required")
	}
	if s.predictor == nil {
		return nil, errNoModel
	}

	results := make([]batchItem, len(a.Products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range a.Products {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.scoreProduct(gctx, p)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				results[i] = batchItem{Index: i, Error: err.Error()}
				return nil
			}
			results[i] = batchItem{Index: i, Result: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &scoreBatchResult{Results: results}
	for _, r := range results {
		if r.Error != "" {
			out.Failed++
		} else {
			out.Scored++
		}
	}
	return out, nil
}

type formulaArgs struct {
	NumLikedMatches    int      `json:"num_liked_matches"`
	NumDislikedMatches int      `json:"num_disliked_matches"`
	NumAllergenMatches int      `json:"num_allergen_matches"`
	LikeWeight         *float64 `json:"like_weight"`
	DislikeWeight      *float64 `json:"dislike_weight"`
}

type formulaResult struct {
	SuitabilityScore float64          `json:"suitability_score"`
	Weights          labeling.Weights `json:"weights"`
}

func (s *Server) handleLabelFormulaScore(args json.RawMessage) (interface{}, error) {
	var a formulaArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.NumLikedMatches < 0 || a.NumDislikedMatches < 0 || a.NumAllergenMatches < 0 {
		return nil, invalidArgs("match counts must not be negative")
	}
	w := s.weights
	if a.LikeWeight != nil {
		w.Like = *a.LikeWeight
	}
	if a.DislikeWeight != nil {
		w.Dislike = *a.DislikeWeight
	}
	if err := w.Validate(); err != nil {
		return nil, &invalidArgsError{err: err}
	}
	score := labeling.CalculateScore(a.NumLikedMatches, a.NumDislikedMatches, a.NumAllergenMatches, w)
	return &formulaResult{SuitabilityScore: scoring.Round2(score), Weights: w}, nil
}

// === Preference Handlers ===

type userArgs struct {
	UserID string `json:"user_id"`
}

type preferencesResult struct {
	UserID      string                  `json:"user_id"`
	Preferences preferences.Preferences `json:"preferences"`
}

func requireUserID(id string) error {
	if id == "" {
		return invalidArgs("user_id is required")
	}
	return nil
}

func (s *Server) handlePreferencesCreate(ctx context.Context) (interface{}, error) {
	id, err := s.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("preferences created", "user_id", id)
	return &userArgs{UserID: id}, nil
}

func (s *Server) handlePreferencesGet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a userArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireUserID(a.UserID); err != nil {
		return nil, err
	}
	p, err := s.store.Get(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	return &preferencesResult{UserID: a.UserID, Preferences: p}, nil
}

func (s *Server) handlePreferencesSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a preferenceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireUserID(a.UserID); err != nil {
		return nil, err
	}
	p := preferences.Preferences{Likes: a.Likes, Dislikes: a.Dislikes, Allergens: a.Allergens}
	if err := s.store.Put(ctx, a.UserID, p); err != nil {
		return nil, err
	}
	saved, err := s.store.Get(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	return &preferencesResult{UserID: a.UserID, Preferences: saved}, nil
}

type applyDietArgs struct {
	UserID string `json:"user_id"`
	Diet   string `json:"diet"`
}

func (s *Server) handlePreferencesApplyDiet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a applyDietArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requireUserID(a.UserID); err != nil {
		return nil, err
	}
	allergens, err := ingredients.DietAllergens(a.Diet)
	if err != nil {
		return nil, &invalidArgsError{err: err}
	}

	var updated preferences.Preferences
	err = s.store.Update(ctx, a.UserID, func(p *preferences.Preferences) error {
		p.Allergens = allergens
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &preferencesResult{UserID: a.UserID, Preferences: updated}, nil
}

// === Status Handler ===

type modelStatus struct {
	Loaded bool `json:"loaded"`
	scoring.Info
}

type modelInfoResult struct {
	Model   modelStatus      `json:"model"`
	OCR     ocr.OCRInfo      `json:"ocr"`
	Weights labeling.Weights `json:"weights"`
	Diets   []string         `json:"diets"`
}

func (s *Server) handleModelInfo() *modelInfoResult {
	status := modelStatus{}
	if s.predictor != nil {
		status = modelStatus{Loaded: true, Info: s.predictor.Info()}
	}
	return &modelInfoResult{
		Model:   status,
		OCR:     s.ocrInfo(),
		Weights: s.weights,
		Diets:   dietNames(),
	}
}

func dietNames() []string {
	return ingredients.Diets()
}
