package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
	"github.com/ironsheep/ballot-interpreter/internal/geometry"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/metadata"
	"github.com/ironsheep/ballot-interpreter/internal/store"
	"github.com/ironsheep/ballot-interpreter/internal/timingmarks"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// ErrNoStore is returned by the history tools when no store is configured.
var ErrNoStore = errors.New("no interpretation store configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "interpret_ballot_card").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn(ctx, "tool failed", logger.String("tool", params.Name), logger.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return s.errorResponse(req.ID, -32603, "Internal error", err.Error())
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(text),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Interpretation
	case "interpret_ballot_card":
		return s.handleInterpretBallotCard(ctx, args)
	case "find_timing_marks":
		return s.handleFindTimingMarks(ctx, args)

	// Metadata codecs
	case "decode_timing_mark_metadata":
		return s.handleDecodeTimingMarkMetadata(args)
	case "encode_timing_mark_metadata":
		return s.handleEncodeTimingMarkMetadata(args)
	case "decode_qr_metadata":
		return s.handleDecodeQRMetadata(args)

	// Images
	case "image_info":
		return s.handleImageInfo(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_ocr_region":
		return s.handleImageOCRRegion(ctx, args)

	// History
	case "list_interpretations":
		return s.handleListInterpretations(ctx, args)
	case "get_interpretation":
		return s.handleGetInterpretation(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// sourceArgs names an image by path or carries it base64 encoded.
type sourceArgs struct {
	Path        string `json:"path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

func (a sourceArgs) source() (imaging.Source, error) {
	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return imaging.Source{}, errors.New("give either path or image_base64, not both")
	case a.Path != "":
		return imaging.FromPath(a.Path), nil
	case a.ImageBase64 != "":
		return imaging.FromBase64(a.ImageBase64)
	default:
		return imaging.Source{}, imaging.ErrEmptySource
	}
}

func (s *Server) load(a sourceArgs) (image.Image, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	return s.cache.Load(src)
}

// === Interpretation Handlers ===

type interpretArgs struct {
	Front         sourceArgs `json:"front"`
	Back          sourceArgs `json:"back"`
	ElectionPath  string     `json:"election_path"`
	BallotStyleID string     `json:"ballot_style_id"`
	IncludeImages bool       `json:"include_normalized_images"`
}

type interpretResult struct {
	Card             *interpret.Card                  `json:"card"`
	Error            string                           `json:"error,omitempty"`
	NormalizedImages map[ballot.Side]*imaging.Encoded `json:"normalized_images,omitempty"`
	Stored           bool                             `json:"stored"`
}

func (s *Server) handleInterpretBallotCard(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a interpretArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	front, err := s.load(a.Front)
	if err != nil {
		return nil, fmt.Errorf("front: %w", err)
	}
	back, err := s.load(a.Back)
	if err != nil {
		return nil, fmt.Errorf("back: %w", err)
	}

	opts := append([]interpret.Option{interpret.WithLogger(s.log.Named("interpret"))}, s.interpretOpts...)
	if a.ElectionPath != "" {
		e, err := s.loadElection(a.ElectionPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, interpret.WithElection(e))
	}
	if a.BallotStyleID != "" {
		opts = append(opts, interpret.WithBallotStyle(a.BallotStyleID))
	}

	card, interpErr := interpret.New(opts...).Interpret(ctx, front, back)
	res := &interpretResult{Card: card}
	if interpErr != nil {
		res.Error = interpErr.Error()
	}

	if a.IncludeImages {
		res.NormalizedImages = make(map[ballot.Side]*imaging.Encoded)
		for _, side := range ballot.Sides {
			img := card.Page(side).NormalizedImage()
			if img == nil {
				continue
			}
			enc, err := imaging.EncodePNG(img)
			if err != nil {
				return nil, err
			}
			res.NormalizedImages[side] = enc
		}
	}

	if s.store != nil {
		sum, err := store.Summarize(card, s.markThreshold)
		if err == nil {
			err = s.store.Save(ctx, sum)
		}
		if err != nil {
			s.log.Error(ctx, "interpretation not stored", logger.String("id", card.ID.String()), logger.Error(err))
		} else {
			res.Stored = true
		}
	}
	return res, nil
}

type findTimingMarksArgs struct {
	Image     sourceArgs `json:"image"`
	PaperSize string     `json:"paper_size"`
	Inference *bool      `json:"infer_missing_marks"`
}

type findTimingMarksResult struct {
	Geometry     ballot.Geometry   `json:"geometry"`
	Grid         *timingmarks.Grid `json:"grid"`
	Candidates   int               `json:"candidates"`
	BottomMarks  []bool            `json:"bottom_marks"`
	MetadataBits []bool            `json:"metadata_bits,omitempty"`
	BitsError    string            `json:"metadata_bits_error,omitempty"`
}

func (s *Server) handleFindTimingMarks(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a findTimingMarksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Image)
	if err != nil {
		return nil, err
	}
	papers := ballot.ScannedPaperInfos()
	if a.PaperSize != "" {
		size, err := ballot.ParsePaperSize(a.PaperSize)
		if err != nil {
			return nil, err
		}
		papers = []ballot.PaperInfo{ballot.ScannedPaperInfo(size)}
	}
	page, err := ballot.PreparePage("image", img, papers)
	if err != nil {
		return nil, err
	}

	opts := []timingmarks.Option{timingmarks.WithLogger(s.log.Named("timingmarks"))}
	if a.Inference != nil {
		opts = append(opts, timingmarks.WithInference(*a.Inference))
	}
	found, err := timingmarks.FindGrid(ctx, page.Image, page.Geometry, opts...)
	if err != nil {
		return nil, err
	}

	res := &findTimingMarksResult{
		Geometry:    page.Geometry,
		Grid:        found.Grid,
		Candidates:  len(found.Candidates),
		BottomMarks: found.Grid.BottomMarkPresence(found.Image),
	}
	if bits, err := found.Grid.MetadataBits(found.Image); err != nil {
		res.BitsError = err.Error()
	} else {
		res.MetadataBits = bits
	}
	return res, nil
}

// === Metadata Codec Handlers ===

type decodeTimingMarkArgs struct {
	Side        ballot.Side `json:"side"`
	Bits        []bool      `json:"bits"`
	BottomMarks []bool      `json:"bottom_marks"`
}

type decodedTimingMarks struct {
	Front    *metadata.Front `json:"front,omitempty"`
	Back     *metadata.Back  `json:"back,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (s *Server) handleDecodeTimingMarkMetadata(args json.RawMessage) (interface{}, error) {
	var a decodeTimingMarkArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	bits := a.Bits
	if len(a.BottomMarks) > 0 {
		var err error
		if bits, err = metadata.BitsFromBottomMarks(a.BottomMarks); err != nil {
			return nil, err
		}
	}

	switch a.Side {
	case ballot.SideFront:
		f, err := metadata.DecodeFront(bits)
		if err != nil {
			return nil, err
		}
		res := &decodedTimingMarks{Front: f}
		if err := f.Validate(); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
		return res, nil
	case ballot.SideBack:
		b, err := metadata.DecodeBack(bits)
		if err != nil {
			return nil, err
		}
		return &decodedTimingMarks{Back: b}, nil
	default:
		return nil, fmt.Errorf("side must be front or back, got %q", a.Side)
	}
}

type encodeTimingMarkArgs struct {
	Side            ballot.Side `json:"side"`
	BatchOrPrecinct uint64      `json:"batch_or_precinct"`
	CardNumber      uint64      `json:"card_number"`
	Day             uint64      `json:"day"`
	Month           uint64      `json:"month"`
	Year            uint64      `json:"year"`
	ElectionType    string      `json:"election_type"`
}

type encodedTimingMarks struct {
	Bits        []bool `json:"bits"`
	BottomMarks []bool `json:"bottom_marks"`
}

func (s *Server) handleEncodeTimingMarkMetadata(args json.RawMessage) (interface{}, error) {
	var a encodeTimingMarkArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	var bits []bool
	switch a.Side {
	case ballot.SideFront:
		f, err := metadata.NewFront(a.BatchOrPrecinct, a.CardNumber)
		if err != nil {
			return nil, err
		}
		if bits, err = f.EncodeBits(); err != nil {
			return nil, err
		}
	case ballot.SideBack:
		if len(a.ElectionType) != 1 {
			return nil, fmt.Errorf("election_type must be one letter, got %q", a.ElectionType)
		}
		b, err := metadata.NewBack(a.Day, a.Month, a.Year, a.ElectionType[0])
		if err != nil {
			return nil, err
		}
		if bits, err = b.EncodeBits(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("side must be front or back, got %q", a.Side)
	}
	marks, err := metadata.BottomMarksFromBits(bits)
	if err != nil {
		return nil, err
	}
	return &encodedTimingMarks{Bits: bits, BottomMarks: marks}, nil
}

type decodeQRArgs struct {
	DataBase64   string `json:"data_base64"`
	ElectionPath string `json:"election_path"`
}

type decodedQR struct {
	Metadata      *metadata.QRMetadata `json:"metadata"`
	OppositePage  *metadata.QRMetadata `json:"opposite_page"`
	PrecinctID    string               `json:"precinct_id,omitempty"`
	BallotStyleID string               `json:"ballot_style_id,omitempty"`
}

func (s *Server) handleDecodeQRMetadata(args json.RawMessage) (interface{}, error) {
	var a decodeQRArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(a.DataBase64)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	m, err := metadata.DecodeQRMetadata(data)
	if err != nil {
		return nil, err
	}
	res := &decodedQR{Metadata: m, OppositePage: metadata.InferMissingPageMetadata(m)}
	if a.ElectionPath != "" {
		e, err := s.loadElection(a.ElectionPath)
		if err != nil {
			return nil, err
		}
		if res.PrecinctID, res.BallotStyleID, err = m.Resolve(e); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// === Image Handlers ===

type imageArgs struct {
	Image sourceArgs `json:"image"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := a.Image.source()
	if err != nil {
		return nil, err
	}
	info, err := s.cache.Info(src)
	if err != nil {
		return nil, err
	}
	res := map[string]interface{}{"info": info}
	size := geometry.Size[geometry.Pixel]{Width: geometry.Pixel(info.Width), Height: geometry.Pixel(info.Height)}
	if g, ok := ballot.GeometryForImageSize(size, ballot.ScannedPaperInfos()); ok {
		res["paper_size"] = g.PaperSize
	}
	return res, nil
}

type regionArgs struct {
	Image sourceArgs `json:"image"`
	X1    int        `json:"x1"`
	Y1    int        `json:"y1"`
	X2    int        `json:"x2"`
	Y2    int        `json:"y2"`
	Scale float64    `json:"scale"`
}

func (a regionArgs) rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(a.X1, a.Y1), Max: image.Pt(a.X2, a.Y2)}
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a regionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.load(a.Image)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.rect(), a.Scale)
}

func (s *Server) handleImageOCRRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a regionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Image)
	if err != nil {
		return nil, err
	}
	region, err := imaging.Region(img, a.rect())
	if err != nil {
		return nil, err
	}
	return s.ocr.Read(ctx, region)
}

// === History Handlers ===

type listArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleListInterpretations(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var a listArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Card = nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"interpretations": list, "stats": stats}, nil
}

type getArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleGetInterpretation(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	var a getArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	return s.store.Get(ctx, id)
}
