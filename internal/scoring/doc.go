// Package scoring turns a feature vector into a suitability score using a
// pre-fitted regression model.
//
// # Model Variants
//
// A loaded model is one of two variants, fixed when the model is loaded:
//
//   - Unscaled: the model consumes raw feature counts (XGBoost trees, linear).
//   - Scaled: features are standardized with a Scaler before the model sees
//     them (MLP networks).
//
// Nothing inspects the model at request time to decide whether to scale.
//
// # Model Formats
//
// The training pipeline stores models in formats Go can read without Python:
//
//   - xgboost: the native JSON written by Booster.save_model("model.json")
//   - mlp: {"activation", "coefs", "intercepts"} exported from an sklearn
//     MLPRegressor, paired with a scaler file
//   - linear: {"coef", "intercept"}
//   - onnx: any single-input single-output regression graph, run through
//     onnxruntime
//
// Scalers are JSON documents holding sklearn StandardScaler state:
// {"mean": [...], "scale": [...]} or {"mean": [...], "var": [...]}.
//
// # Concurrency
//
// A Predictor is immutable after Load and safe for concurrent use without
// locking.
//
// # Clamping
//
// Predict clamps the model output into [0, 100] and rounds it to two
// decimals. Out-of-range and non-finite outputs are clamped, not reported.
package scoring
