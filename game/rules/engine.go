package rules

import (
	"errors"
	"strings"

	"github.com/notnil/chess"
)

// ErrIllegalMove is returned by Game.Apply when the requested move is not
// legal in the current position. The game state is unchanged.
var ErrIllegalMove = errors.New("illegal move")

// Color identifies a side, using the single-letter form that goes on the wire.
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

// Opponent returns the opposing color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Move is a coordinate move request. Promotion is optional and may be either
// a single letter ("q", "r", "b", "n") or a long name ("queen").
type Move struct {
	From      string
	To        string
	Promotion string
}

// Result describes an accepted move: the SAN notation for broadcasting and
// the color that played it.
type Result struct {
	SAN   string
	Color Color
}

// Snapshot is the full game state sent to clients. Field names match the
// wire protocol.
type Snapshot struct {
	FEN                  string `json:"fen"`
	Turn                 Color  `json:"turn"`
	GameOver             bool   `json:"isGameOver"`
	Check                bool   `json:"isCheck"`
	Checkmate            bool   `json:"isCheckmate"`
	Draw                 bool   `json:"isDraw"`
	Stalemate            bool   `json:"isStalemate"`
	ThreefoldRepetition  bool   `json:"isThreefoldRepetition"`
	InsufficientMaterial bool   `json:"isInsufficientMaterial"`
}

// Engine creates game handles. It is injected into the coordinator so the
// rules implementation can be swapped out wholesale.
type Engine interface {
	NewGame() Game
}

// Game is one game instance. Implementations are not required to be safe for
// concurrent use; the coordinator serializes access.
type Game interface {
	// Apply plays a move, returning ErrIllegalMove (and changing nothing)
	// if the move is not legal.
	Apply(mv Move) (Result, error)

	// Snapshot returns the broadcastable state of the position.
	Snapshot() Snapshot

	// Turn returns the color to move.
	Turn() Color

	// Outcome reports whether the game has ended and, if so, why
	// ("checkmate", "stalemate", ...). Resignation is tracked by the
	// coordinator, not the engine.
	Outcome() (over bool, reason string)
}

// NewChessEngine returns the default Engine, backed by notnil/chess.
func NewChessEngine() Engine {
	return chessEngine{}
}

type chessEngine struct{}

func (chessEngine) NewGame() Game {
	return &chessGame{game: chess.NewGame()}
}

type chessGame struct {
	game *chess.Game

	// lastCheck records whether the most recent move gave check; a fresh
	// game is never in check so the zero value is correct.
	lastCheck bool
}

func (g *chessGame) Apply(mv Move) (Result, error) {
	pos := g.game.Position()

	uci := strings.ToLower(mv.From) + strings.ToLower(mv.To) + promoSuffix(mv.Promotion)
	decoded, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return Result{}, ErrIllegalMove
	}

	// SAN must be encoded against the position before the move commits.
	san := chess.AlgebraicNotation{}.Encode(pos, decoded)
	mover := Color(pos.Turn().String())

	if err := g.game.Move(decoded); err != nil {
		return Result{}, ErrIllegalMove
	}

	// SAN carries "+"/"#" suffixes, which saves re-deriving check status
	// from the library.
	g.lastCheck = strings.HasSuffix(san, "+") || strings.HasSuffix(san, "#")
	return Result{SAN: san, Color: mover}, nil
}

func (g *chessGame) Turn() Color {
	return Color(g.game.Position().Turn().String())
}

func (g *chessGame) Snapshot() Snapshot {
	over, draw, method := g.terminal()
	return Snapshot{
		FEN:                  g.game.Position().String(),
		Turn:                 g.Turn(),
		GameOver:             over,
		Check:                g.lastCheck,
		Checkmate:            method == chess.Checkmate,
		Draw:                 draw,
		Stalemate:            method == chess.Stalemate,
		ThreefoldRepetition:  method == chess.ThreefoldRepetition,
		InsufficientMaterial: method == chess.InsufficientMaterial,
	}
}

func (g *chessGame) Outcome() (bool, string) {
	over, _, method := g.terminal()
	if !over {
		return false, ""
	}
	switch method {
	case chess.Checkmate:
		return true, "checkmate"
	case chess.Stalemate:
		return true, "stalemate"
	case chess.ThreefoldRepetition:
		return true, "threefold repetition"
	case chess.FiftyMoveRule:
		return true, "fifty move rule"
	case chess.InsufficientMaterial:
		return true, "insufficient material"
	default:
		return true, "draw"
	}
}

// terminal resolves the game's end state. Claimable draws count as terminal:
// threefold repetition and the fifty-move rule end the game immediately
// rather than waiting for a claim.
func (g *chessGame) terminal() (over, draw bool, method chess.Method) {
	if outcome := g.game.Outcome(); outcome != chess.NoOutcome {
		return true, outcome == chess.Draw, g.game.Method()
	}
	for _, m := range g.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			return true, true, m
		}
	}
	return false, false, chess.NoMethod
}

// promoSuffix normalizes a promotion piece to its UCI letter. Unknown values
// are passed through lowercased, leaving rejection to the move decoder.
func promoSuffix(promotion string) string {
	switch strings.ToLower(promotion) {
	case "":
		return ""
	case "q", "queen":
		return "q"
	case "r", "rook":
		return "r"
	case "b", "bishop":
		return "b"
	case "n", "knight":
		return "n"
	default:
		return strings.ToLower(promotion)
	}
}
