package validation

// Request and job variable schemas. Unknown keys are always allowed; the
// assistant payload may carry fields nobody reads.

var productRefSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"name"},
	"properties": map[string]interface{}{
		"id":          map[string]interface{}{"type": []interface{}{"string", "number"}},
		"name":        map[string]interface{}{"type": "string", "minLength": 1},
		"image":       map[string]interface{}{"type": "string"},
		"price":       map[string]interface{}{"type": []interface{}{"number", "string"}},
		"shop_name":   map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"shipping_details": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":    map[string]interface{}{"type": "string"},
				"address": map[string]interface{}{"type": "string"},
			},
		},
	},
}

var itemViewSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"variant"},
	"properties": map[string]interface{}{
		"variant": map[string]interface{}{"enum": []interface{}{"buy", "checkout", "track"}},
		"product": productRefSchema,
		"orderId": map[string]interface{}{"type": "string"},
	},
}

var (
	ProductRef = MustCompile(productRefSchema)

	ChatRequest = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"message"},
		"properties": map[string]interface{}{
			"message": map[string]interface{}{"type": "string"},
		},
	})

	CheckoutRequest = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"product"},
		"properties": map[string]interface{}{
			"product": productRefSchema,
			"payment": map[string]interface{}{"type": "object"},
		},
	})

	SelectRequest = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"item"},
		"properties": map[string]interface{}{
			"item": itemViewSchema,
		},
	})

	AssistantMessage = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"message"},
		"properties": map[string]interface{}{
			"message": map[string]interface{}{"type": "string"},
		},
	})

	ActionItems = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"actionItems"},
		"properties": map[string]interface{}{
			"actionItems": map[string]interface{}{"type": "array"},
		},
	})

	ClassifiedItems = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"items"},
		"properties": map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"items":     map[string]interface{}{"type": "array", "items": itemViewSchema},
		},
	})

	TrackOrder = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"orderId"},
		"properties": map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"orderId":   map[string]interface{}{"type": "string"},
		},
	})

	SimulatePayment = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"product"},
		"properties": map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"product":   productRefSchema,
		},
	})

	ChatTurn = MustCompile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"message"},
		"properties": map[string]interface{}{
			"sessionId": map[string]interface{}{"type": "string"},
			"message":   map[string]interface{}{"type": "string"},
		},
	})
)
