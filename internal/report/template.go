package report

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Model Explainability Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; }
.container { max-width: 1200px; margin: 0 auto; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 30px; }
.plot { margin: 20px 0; border: 1px solid #ddd; padding: 20px; border-radius: 10px; }
.plot img { width: 100%; max-width: 1000px; display: block; margin: 0 auto; }
.insight { background: #f0f7ff; padding: 15px; border-radius: 8px; margin: 10px 0; }
.note { background: #fff3cd; padding: 15px; border-radius: 8px; margin: 10px 0; }
.table { width: 100%; border-collapse: collapse; margin: 20px 0; }
.table th, .table td { border: 1px solid #ddd; padding: 12px; text-align: left; }
.table th { background-color: #f5f5f5; }
.badge { display: inline-block; padding: 3px 8px; border-radius: 12px; font-size: 12px; }
.badge-high { background: #d4edda; color: #155724; }
.badge-medium { background: #fff3cd; color: #856404; }
.badge-low { background: #f8d7da; color: #721c24; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Model Explainability Report</h1>
<p>Date: {{.AnalysisDate}}</p>
<p>Model: {{.ModelArchitecture}}</p>
<p>Samples analyzed: {{.SamplesAnalyzed}}</p>
</div>
{{if .Note}}<div class="note"><p>{{.Note}}</p></div>
{{end}}
<h2>Model insights</h2>
{{range .Insights}}<div class="insight"><p>{{.}}</p></div>
{{end}}
<h2>Feature importance</h2>
<table class="table">
<tr><th>Rank</th><th>Feature</th><th>Importance</th><th>Impact</th></tr>
{{range .Rows}}<tr class="feature-row"><td>#{{.Rank}}</td><td>{{.Feature}}</td><td>{{.Importance}}</td><td><span class="badge {{.Badge}}">{{.Label}}</span></td></tr>
{{end}}</table>

<h2>SHAP visualizations</h2>
<div class="plot">
<h3>Summary plot</h3>
<img src="{{.SummaryPlot}}" alt="SHAP summary plot">
</div>
<div class="plot">
<h3>Importance bar plot</h3>
<img src="{{.BarPlot}}" alt="SHAP importance bar plot">
</div>

<div style="margin-top: 40px; padding: 20px; background: #f9f9f9; border-radius: 10px;">
<h3>Reading the results</h3>
<ul>
<li><strong>SHAP values:</strong> how much each feature moves the prediction away from the base value</li>
<li><strong>Importance:</strong> features with larger mean absolute SHAP values matter more</li>
<li><strong>Individual predictions:</strong> each prediction equals the base value plus the sum of its feature contributions</li>
</ul>
</div>
</div>
</body>
</html>
`
