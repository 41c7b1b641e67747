package generate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoforge/demoforge/pkg/generate"
	"github.com/demoforge/demoforge/pkg/interfaces"
	"github.com/demoforge/demoforge/pkg/plan"
	"github.com/demoforge/demoforge/pkg/recovery"
)

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	return f.reply, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func TestGenerateScreens(t *testing.T) {
	llm := &fakeLLM{reply: "Here are the screens:\n" +
		`[{"name": "Home", "purpose": "Landing page"}, {"name": "Cart", "purpose": "Order review"}]`}

	g := generate.NewGenerator(llm)
	screens, err := g.GenerateScreens(context.Background(), "a coffee ordering app", plan.PlatformWeb)
	require.NoError(t, err)

	require.Len(t, screens, 2)
	assert.Equal(t, "Home", screens[0].Name)
	assert.Equal(t, "Order review", screens[1].Purpose)
}

func TestGenerateScreensRejectsEmptyList(t *testing.T) {
	g := generate.NewGenerator(&fakeLLM{reply: "[]"})

	_, err := g.GenerateScreens(context.Background(), "anything", plan.PlatformWeb)
	require.Error(t, err)
	assert.ErrorIs(t, err, generate.ErrInvalidScreenList)
}

func TestGenerateScreensNoJSON(t *testing.T) {
	g := generate.NewGenerator(&fakeLLM{reply: "I could not produce a screen list."})

	_, err := g.GenerateScreens(context.Background(), "anything", plan.PlatformWeb)
	require.Error(t, err)
	assert.ErrorIs(t, err, recovery.ErrNoJSON)
}

func TestGenerateServiceRepairsBacktickCode(t *testing.T) {
	// Model emitted a template-literal style value instead of a JSON string
	g := generate.NewGenerator(&fakeLLM{reply: "{\"code\": `def handler():\n    return \"ok\"`}"})

	p := plan.NewPlan("coffee-shop", plan.PlatformPython)
	code, err := g.GenerateService(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "def handler():\n    return \"ok\"", code)
}

func TestRefineCodeEmptyResult(t *testing.T) {
	g := generate.NewGenerator(&fakeLLM{reply: `{"code": ""}`})

	_, err := g.RefineCode(context.Background(), "x = 1", "rename x")
	require.Error(t, err)
	assert.ErrorIs(t, err, generate.ErrInvalidServiceBody)
}

func TestSuggestImprovements(t *testing.T) {
	g := generate.NewGenerator(&fakeLLM{reply: `["Add a span for cart abandonment", "Track payment retries"]`})

	p := plan.NewPlan("coffee-shop", plan.PlatformWeb)
	suggestions, err := g.SuggestImprovements(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestScaffoldWeb(t *testing.T) {
	p := plan.NewPlan("coffee-shop", plan.PlatformWeb)
	p.Spans = append(p.Spans, plan.Span{
		Name:        "checkout.validate_cart",
		Operation:   "checkout",
		Layer:       "backend",
		Description: "Validates the cart",
		Attributes:  map[string]string{"cart_value": "Tracks cart value"},
		PIIKeys:     []string{},
	})

	files, err := generate.Scaffold(p)
	require.NoError(t, err)
	require.Len(t, files, 3)

	var instrumentation string
	for _, f := range files {
		if f.Path == "src/instrumentation.js" {
			instrumentation = f.Content
		}
	}
	require.NotEmpty(t, instrumentation)
	assert.Contains(t, instrumentation, `"checkout.validate_cart"`)
	assert.Contains(t, instrumentation, `"cart_value"`)
}

func TestScaffoldPythonRedactsPII(t *testing.T) {
	p := plan.NewPlan("coffee-shop", plan.PlatformPython)
	p.Spans = append(p.Spans, plan.Span{
		Name:        "user.signup",
		Operation:   "user",
		Layer:       "backend",
		Description: "Signs a user up",
		Attributes:  map[string]string{"customer_email": "Tracks customer email"},
		PIIKeys:     []string{"customer_email"},
	})

	files, err := generate.Scaffold(p)
	require.NoError(t, err)

	var instrumentation string
	for _, f := range files {
		if f.Path == "instrumentation.py" {
			instrumentation = f.Content
		}
	}
	require.NotEmpty(t, instrumentation)
	assert.Contains(t, instrumentation, `"customer_email"`)
	assert.Contains(t, instrumentation, "REDACTED")
}

func TestScaffoldUnsupportedPlatform(t *testing.T) {
	p := plan.NewPlan("coffee-shop", plan.Platform("desktop"))

	_, err := generate.Scaffold(p)
	assert.Error(t, err)
}
