package services

const preventivePrompt = `You are a fire-safety engineer reviewing the floor plan of a registered property.
Assess the plan for fire risk and prevention measures.

Respond with a single JSON object and nothing else, using exactly these keys:
{
  "summary": string, a short overall assessment,
  "high_risk_zones": [{"zone": string, "reason": string, "severity": "low"|"medium"|"high"}],
  "evacuation_routes": [{"from": string, "to": string, "description": string}],
  "access_points": [{"location": string, "type": string, "notes": string}],
  "fire_propagation": {"likely_origin": string, "spread_paths": [string], "barriers": [string]},
  "safety_recommendations": [string],
  "overall_risk_score": number from 1 (very low) to 10 (critical)
}`

const operationalPrompt = `You are a fire-brigade incident commander preparing an intervention on the property
shown in this floor plan.

Respond with a single JSON object and nothing else, using exactly these keys:
{
  "operational_summary": string, the key facts a crew needs on arrival,
  "access_points": [{"location": string, "type": string, "notes": string}],
  "evacuation_routes": [{"from": string, "to": string, "description": string}],
  "risk_zones": [{"zone": string, "hazard": string, "priority": "low"|"medium"|"high"}],
  "tactical_recommendations": [string]
}`
