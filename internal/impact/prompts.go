package impact

// extractionTemplate is rendered once per CandidatePair and sent through
// LLMMap with the RawImpact schema as structured output.
const extractionTemplate = `Eres un abogado especializado en cumplimiento normativo. Tu tarea es determinar si el siguiente artículo de ley afecta las prácticas descritas en el documento interno de la empresa.

{{item}}

Evalúa la relación entre ambos textos y responde en JSON con los siguientes campos:

- "nivel_relevancia": un entero de 0 a 100 que mide qué tan fuertemente el artículo afecta las prácticas descritas.
  - 0: sin relación justificable. Usa este valor si no encuentras una conexión real, incluso si los textos comparten vocabulario superficial.
  - 1-20: relación tangencial.
  - 21-40: impacto menor.
  - 41-60: impacto moderado.
  - 61-80: impacto significativo.
  - 81-100: impacto crítico.
- "extracto_interno": la cita textual más relevante del documento interno (máximo dos oraciones).
- "extracto_articulo": la cita textual más relevante del artículo de ley (máximo dos oraciones).
- "descripcion_impacto": explicación breve, en español y en registro jurídico-profesional, de por qué el artículo afecta (o no) la práctica descrita.

Responde únicamente con el objeto JSON.`

// highRelevanceConsolidationTemplate produces a full legal-impact report,
// capped at roughly 500 words.
const highRelevanceConsolidationTemplate = `Eres un abogado especializado en cumplimiento normativo encargado de redactar un informe ejecutivo de impacto legal.

A continuación se listan los impactos individuales identificados entre un proyecto de ley y las prácticas de una empresa:

{{item}}

Redacta un informe en Markdown, de no más de 500 palabras, con la siguiente estructura fija:

## Resumen

Un párrafo breve con la conclusión principal.

## Impactos Identificados

Una lista de los impactos más relevantes, en orden de importancia.

## Análisis de Relevancia

Una evaluación de la severidad general del riesgo de cumplimiento que representa este proyecto de ley para la empresa.

Responde únicamente con el documento Markdown.`

// lowRelevanceConsolidationTemplate produces a brief dismissal, capped at
// roughly 300 words.
const lowRelevanceConsolidationTemplate = `Eres un abogado especializado en cumplimiento normativo. Los siguientes impactos fueron identificados entre un proyecto de ley y las prácticas de una empresa, pero ninguno supera un nivel de relevancia moderado:

{{item}}

Redacta un resumen breve en Markdown, de no más de 300 palabras, con la siguiente estructura fija:

## Resumen

Un párrafo explicando por qué este proyecto de ley no representa un riesgo significativo de cumplimiento en este momento.

## Análisis de Relevancia

Una nota breve sobre qué condiciones harían que esta evaluación cambiara.

Responde únicamente con el documento Markdown.`
