package core

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := NewEngine(sampleTable(t), opts...)
	require.NoError(t, err)
	return eng
}

func TestNewEngine_NilTable(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, ErrNoReferenceTable)
}

func TestEngine_Validate_Scenarios(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name string
		code string
		want ValidationResult
	}{
		{
			name: "leaf code with full ancestry",
			code: "010121",
			want: ValidationResult{
				Code:          "010121",
				IsValid:       true,
				FormatValid:   true,
				FormatMessage: MsgFormatValid,
				LengthValid:   true,
				Exists:        true,
				Description:   "Pure-bred breeding animals",
				Hierarchy: []ParentCheck{
					{ParentCode: "01", Exists: true, Description: "Live animals"},
					{ParentCode: "0101", Exists: true, Description: "Live horses, asses, mules and hinnies"},
				},
				Messages: []string{MsgFormatValid, MsgExists},
			},
		},
		{
			name: "unknown code of unusual length",
			code: "99999",
			want: ValidationResult{
				Code:          "99999",
				FormatValid:   true,
				FormatMessage: "Format is valid (length 5 is not one of the known HSN code lengths: 2, 4, 6)",
				Hierarchy: []ParentCheck{
					{ParentCode: "99"},
					{ParentCode: "9999"},
				},
				Messages: []string{
					"Format is valid (length 5 is not one of the known HSN code lengths: 2, 4, 6)",
					MsgNotFound,
				},
			},
		},
		{
			name: "letters fail format",
			code: "12a4",
			want: ValidationResult{
				Code:          "12a4",
				FormatMessage: MsgNotDigits,
				Hierarchy:     []ParentCheck{},
				Messages:      []string{MsgNotDigits},
			},
		},
		{
			name: "empty",
			code: "",
			want: ValidationResult{
				FormatMessage: MsgEmpty,
				Hierarchy:     []ParentCheck{},
				Messages:      []string{MsgEmpty},
			},
		},
		{
			name: "whitespace only is empty",
			code: "   \t",
			want: ValidationResult{
				FormatMessage: MsgEmpty,
				Hierarchy:     []ParentCheck{},
				Messages:      []string{MsgEmpty},
			},
		},
		{
			name: "chapter code has no ancestors",
			code: "01",
			want: ValidationResult{
				Code:          "01",
				IsValid:       true,
				FormatValid:   true,
				FormatMessage: MsgFormatValid,
				LengthValid:   true,
				Exists:        true,
				Description:   "Live animals",
				Hierarchy:     []ParentCheck{},
				Messages:      []string{MsgFormatValid, MsgExists},
			},
		},
		{
			name: "missing code with existing parents",
			code: "010129",
			want: ValidationResult{
				Code:          "010129",
				FormatValid:   true,
				FormatMessage: MsgFormatValid,
				LengthValid:   true,
				Hierarchy: []ParentCheck{
					{ParentCode: "01", Exists: true, Description: "Live animals"},
					{ParentCode: "0101", Exists: true, Description: "Live horses, asses, mules and hinnies"},
				},
				Messages: []string{MsgFormatValid, MsgNotFound},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.Validate(tt.code)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Validate(%q) mismatch (-want +got):\n%s", tt.code, diff)
			}
		})
	}
}

func TestEngine_Validate_TrimsPadding(t *testing.T) {
	eng := newTestEngine(t)

	padded := eng.Validate("  0101\n")
	plain := eng.Validate("0101")

	assert.Equal(t, "0101", padded.Code)
	if diff := cmp.Diff(plain, padded); diff != "" {
		t.Errorf("padding changed the verdict (-plain +padded):\n%s", diff)
	}
}

func TestEngine_Validate_StrictLength(t *testing.T) {
	eng := newTestEngine(t, WithLengthPolicy(LengthStrict))

	r := eng.Validate("99999")
	assert.False(t, r.FormatValid)
	assert.False(t, r.IsValid)
	assert.False(t, r.Exists)
	assert.Empty(t, r.Hierarchy)
	assert.Equal(t, "Invalid length. HSN codes should be 2, 4, 6 digits long.", r.FormatMessage)
	assert.Equal(t, []string{r.FormatMessage}, r.Messages)

	// Known lengths pass unchanged.
	assert.True(t, eng.Validate("010121").IsValid)
}

func TestEngine_Validate_EmptyTableSkipsLengthCheck(t *testing.T) {
	table, err := NewReferenceTable("empty", nil)
	require.NoError(t, err)
	eng, err := NewEngine(table, WithLengthPolicy(LengthStrict))
	require.NoError(t, err)

	r := eng.Validate("123")
	assert.True(t, r.FormatValid)
	assert.True(t, r.LengthValid)
	assert.False(t, r.Exists)
	assert.Equal(t, []ParentCheck{{ParentCode: "12"}}, r.Hierarchy)
}

// Properties that must hold for any input.
func TestEngine_Validate_Properties(t *testing.T) {
	eng := newTestEngine(t)
	rng := rand.New(rand.NewSource(42))
	alphabet := "0123456789 a-."

	inputs := []string{"", "0", "01", "0101", "010121", "01012100", "1234567"}
	for i := 0; i < 500; i++ {
		n := rng.Intn(10)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		inputs = append(inputs, b.String())
	}

	for _, in := range inputs {
		r := eng.Validate(in)

		if r.IsValid != (r.FormatValid && r.Exists) {
			t.Errorf("%q: IsValid must equal FormatValid && Exists", in)
		}
		if !IsDigits(r.Code) && r.FormatValid {
			t.Errorf("%q: non-digit code passed format", in)
		}
		if r.Exists {
			if desc, ok := eng.Table().Lookup(r.Code); !ok || desc != r.Description {
				t.Errorf("%q: Exists without matching table entry", in)
			}
		}
		if r.FormatValid {
			if want := (len(r.Code) - 1) / 2; len(r.Hierarchy) != want {
				t.Errorf("%q: expected %d parents, got %d", in, want, len(r.Hierarchy))
			}
			for _, p := range r.Hierarchy {
				if !strings.HasPrefix(r.Code, p.ParentCode) || len(p.ParentCode)%2 != 0 {
					t.Errorf("%q: bad parent %q", in, p.ParentCode)
				}
			}
		} else if len(r.Hierarchy) != 0 {
			t.Errorf("%q: format failure must skip hierarchy", in)
		}
		if diff := cmp.Diff(r, eng.Validate(in)); diff != "" {
			t.Errorf("%q: Validate is not deterministic:\n%s", in, diff)
		}
	}
}

func TestEngine_ValidateMany_PreservesOrder(t *testing.T) {
	eng := newTestEngine(t)

	codes := []string{"0101", "12a4", "0101", "", "010121"}
	results := eng.ValidateMany(codes)

	require.Len(t, results, len(codes))
	for i, code := range codes {
		assert.Equal(t, eng.Validate(code), results[i], "index %d", i)
	}
}

func TestEngine_ValidateMany_Empty(t *testing.T) {
	eng := newTestEngine(t)
	assert.Empty(t, eng.ValidateMany(nil))
}

func TestEngine_ValidateManyContext_Parallel(t *testing.T) {
	eng := newTestEngine(t, WithConcurrency(8))

	codes := make([]string, 5000)
	for i := range codes {
		switch i % 4 {
		case 0:
			codes[i] = "010121"
		case 1:
			codes[i] = fmt.Sprintf("%06d", i)
		case 2:
			codes[i] = "bad" + fmt.Sprint(i)
		default:
			codes[i] = "01"
		}
	}

	results, err := eng.ValidateManyContext(context.Background(), codes)
	require.NoError(t, err)
	require.Len(t, results, len(codes))

	for i, code := range codes {
		if results[i].Code != code {
			t.Fatalf("index %d: expected %q, got %q", i, code, results[i].Code)
		}
	}
}

func TestEngine_ValidateManyContext_Cancelled(t *testing.T) {
	eng := newTestEngine(t, WithConcurrency(4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	codes := make([]string, 1000)
	for i := range codes {
		codes[i] = "0101"
	}

	_, err := eng.ValidateManyContext(ctx, codes)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLengthPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LengthPolicy
		wantErr bool
	}{
		{"", LengthAdvisory, false},
		{"advisory", LengthAdvisory, false},
		{" STRICT ", LengthStrict, false},
		{"lenient", LengthAdvisory, true},
	}
	for _, tt := range tests {
		got, err := ParseLengthPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.in)) == "strict", got.String() == "strict")
	}
}
