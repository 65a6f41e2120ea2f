package vision

// PathologyLabels is the chest radiograph vocabulary the classifier was
// trained on. Order matters; the classifier returns probabilities in this
// order.
var PathologyLabels = []string{
	"Atelectasis",
	"Cardiomegaly",
	"Consolidation",
	"Edema",
	"Effusion",
	"Emphysema",
	"Enlarged Cardiomediastinum",
	"Fibrosis",
	"Fracture",
	"Hernia",
	"Infiltration",
	"Lung Lesion",
	"Lung Opacity",
	"Mass",
	"Nodule",
	"Pleural Thickening",
	"Pneumonia",
	"Pneumothorax",
}
