// Package server implements the MCP (Model Context Protocol) server for food
// label scoring.
//
// The server reads a photographed ingredient list, matches it against a
// user's likes, dislikes and allergens, and predicts a 0-100 suitability
// score with a pre-trained model.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Label Reading:
//   - label_extract_ingredients: OCR a label image into ingredient tokens
//   - ingredients_segment: Split label text into ingredient tokens
//
// Features and Scoring:
//   - features_extract: Count ingredients and keyword matches
//   - score_predict: Predict the score for a feature vector
//   - score_product: Ingredients or image plus preferences to score
//   - score_batch: Score many products in parallel
//   - label_formula_score: Offline heuristic used to label training data
//
// Preferences:
//   - preferences_create, preferences_get, preferences_save
//   - preferences_apply_diet: Replace allergens with a dietary preset
//
// Status:
//   - model_info: Loaded model, OCR availability, weights and presets
//
// # Error Handling
//
// Malformed tools/call params or tool arguments return code -32602. Any other
// tool failure returns code -32000 with the error text in the data field.
// Unknown methods return -32601 and unparsable request lines -32700.
//
// # Concurrency
//
// Requests are handled one at a time in arrival order. score_batch fans out
// internally with a bounded worker group.
package server
